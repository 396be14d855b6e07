package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sahilchouksey/learning-center-api/config"
	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
)

var demoStudents = []services.StudentPayload{
	{FullName: "Aziza Karimova", Phone: "+998901110001", ParentPhone: "+998901119001"},
	{FullName: "Bekzod Tursunov", Phone: "+998901110002", ParentPhone: "+998901119002"},
	{FullName: "Dilnoza Rashidova", Phone: "+998901110003", ParentPhone: "+998901119003"},
	{FullName: "Jasur Aliev", Phone: "+998901110004", ParentPhone: "+998901119004"},
}

func main() {
	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	db := store.DB()

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Learning Center - Database Seeding")
	fmt.Println(separator)

	seeder := database.NewSeeder(db)
	if err := seeder.SeedSuperAdmin(database.SuperAdmin{
		Login:    env.SUPER_ADMIN_LOGIN,
		Email:    env.SUPER_ADMIN_EMAIL,
		Password: env.SUPER_ADMIN_PASSWORD,
	}); err != nil {
		log.Fatalf("Seeding super admin failed: %v", err)
	}

	demo, err := seeder.SeedDemoCenter()
	if err != nil {
		log.Fatalf("Seeding demo center failed: %v", err)
	}

	// Students go through enrollment so the group counter stays consistent
	enrollment := services.NewEnrollmentService(db, database.NewUnitOfWork(db, env.TX_TIMEOUT), nil)
	birth := time.Date(2008, time.March, 1, 0, 0, 0, 0, time.UTC)
	for _, payload := range demoStudents {
		payload.BirthDate = birth
		result, err := enrollment.CreateStudent(context.Background(), demo.Center.ID, demo.Group.ID, payload)
		switch {
		case apperror.IsKind(err, apperror.KindConflict):
			log.Printf("Student %s already exists, skipping...", payload.Phone)
		case apperror.IsKind(err, apperror.KindCapacityExceeded):
			log.Printf("Demo group is full, skipping %s", payload.Phone)
		case err != nil:
			log.Fatalf("Enrolling %s failed: %v", payload.Phone, err)
		default:
			log.Printf("Enrolled %s (group now %d students)", result.Student.FullName, result.Group.CurrentStudents)
		}
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println(separator)
	fmt.Println("Demo logins: demo_center / demo_teacher, password demo12345")
}
