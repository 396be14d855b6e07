package database

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/auth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SuperAdmin are the credentials of the bootstrap account
type SuperAdmin struct {
	Login    string
	Email    string
	Password string
}

// DemoCenter is the fixture created by SeedDemoCenter
type DemoCenter struct {
	Center  *model.LearningCenter
	Teacher *model.Teacher
	Group   *model.Group
}

// Demo fixture identifiers. Phones are unique so reruns find the same rows.
const (
	demoCenterPhone  = "+998900000001"
	demoTeacherPhone = "+998900000002"
	demoGroupName    = "Demo English A1"
	demoPassword     = "demo12345"
)

// SeedSuperAdmin creates the super admin when none exists. It is a no-op
// when credentials are missing.
func (s *Seeder) SeedSuperAdmin(admin SuperAdmin) error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Super admin already exists, skipping...")
		return nil
	}

	if admin.Login == "" || admin.Password == "" {
		log.Println("SUPER_ADMIN_LOGIN and SUPER_ADMIN_PASSWORD not set, skipping super admin creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Login:        admin.Login,
		PasswordHash: passwordHash,
		Name:         "Super Administrator",
		Role:         model.RoleSuperAdmin,
	}
	if email := strings.ToLower(strings.TrimSpace(admin.Email)); email != "" {
		user.Email = &email
	}

	if err := s.db.Create(user).Error; err != nil {
		return err
	}

	log.Printf("Created super admin: %s", user.Login)
	return nil
}

// SeedDemoCenter creates a demo learning center with its owner account, a
// teacher with a login and one group. Students are left to the caller so
// they go through enrollment.
func (s *Seeder) SeedDemoCenter() (*DemoCenter, error) {
	demo := &DemoCenter{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		passwordHash, err := auth.HashPassword(demoPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		var center model.LearningCenter
		err = tx.Where("phone = ?", demoCenterPhone).First(&center).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			center = model.LearningCenter{
				Name:    "Demo Learning Center",
				Email:   "demo@learning-center.local",
				Phone:   demoCenterPhone,
				Address: "Tashkent",
			}
			if err := tx.Create(&center).Error; err != nil {
				return err
			}
			owner := model.User{
				Login:            "demo_center",
				PasswordHash:     passwordHash,
				Name:             center.Name,
				Role:             model.RoleLearningCenter,
				LearningCenterID: &center.ID,
			}
			if err := tx.Create(&owner).Error; err != nil {
				return err
			}
			log.Printf("Created demo learning center %d (login %s)", center.ID, owner.Login)
		case err != nil:
			return err
		}
		demo.Center = &center

		var teacher model.Teacher
		err = tx.Where("phone = ?", demoTeacherPhone).First(&teacher).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			teacher = model.Teacher{
				LearningCenterID: center.ID,
				FirstName:        "Demo",
				LastName:         "Teacher",
				Phone:            demoTeacherPhone,
				Subject:          "English",
				Salary:           3000000,
				IsActive:         true,
			}
			if err := tx.Create(&teacher).Error; err != nil {
				return err
			}
			account := model.User{
				Login:            "demo_teacher",
				PasswordHash:     passwordHash,
				Name:             teacher.FullName(),
				Role:             model.RoleTeacher,
				LearningCenterID: &center.ID,
				TeacherID:        &teacher.ID,
			}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
			log.Printf("Created demo teacher %d (login %s)", teacher.ID, account.Login)
		case err != nil:
			return err
		}
		demo.Teacher = &teacher

		var group model.Group
		err = tx.Where("learning_center_id = ? AND name = ?", center.ID, demoGroupName).First(&group).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			maxStudents := 12
			start := time.Now().UTC().Truncate(24 * time.Hour)
			group = model.Group{
				LearningCenterID: center.ID,
				TeacherID:        &teacher.ID,
				Name:             demoGroupName,
				StartDate:        datatypes.Date(start),
				EndDate:          datatypes.Date(start.AddDate(0, 6, 0)),
				LessonDays:       3,
				LessonTime:       "18:00",
				MonthlyPrice:     450000,
				Room:             "101",
				IsActive:         true,
				MaxStudents:      &maxStudents,
			}
			if err := tx.Create(&group).Error; err != nil {
				return err
			}
			log.Printf("Created demo group %d", group.ID)
		case err != nil:
			return err
		}
		demo.Group = &group

		return nil
	})
	if err != nil {
		return nil, err
	}
	return demo, nil
}
