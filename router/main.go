package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/config"
	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/handlers"
	admin_handlers "github.com/sahilchouksey/learning-center-api/handlers/admin"
	attendance_handlers "github.com/sahilchouksey/learning-center-api/handlers/attendance"
	auth_handlers "github.com/sahilchouksey/learning-center-api/handlers/auth"
	group_handlers "github.com/sahilchouksey/learning-center-api/handlers/group"
	center_handlers "github.com/sahilchouksey/learning-center-api/handlers/learningcenter"
	lesson_handlers "github.com/sahilchouksey/learning-center-api/handlers/lesson"
	notification_handlers "github.com/sahilchouksey/learning-center-api/handlers/notification"
	payment_handlers "github.com/sahilchouksey/learning-center-api/handlers/payment"
	salary_handlers "github.com/sahilchouksey/learning-center-api/handlers/salary"
	student_handlers "github.com/sahilchouksey/learning-center-api/handlers/student"
	teacher_handlers "github.com/sahilchouksey/learning-center-api/handlers/teacher"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/services/storage"
	"github.com/sahilchouksey/learning-center-api/utils/auth"
	"github.com/sahilchouksey/learning-center-api/utils/cache"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"gorm.io/gorm"
)

// Services are the long-lived services shared by the routes and the cron jobs
type Services struct {
	Auth           *services.AuthService
	LearningCenter *services.LearningCenterService
	Teacher        *services.TeacherService
	Group          *services.GroupService
	Student        *services.StudentService
	Enrollment     *services.EnrollmentService
	Attendance     *services.AttendanceService
	Lesson         *services.LessonService
	Payment        *services.PaymentService
	Salary         *services.SalaryService
	Notification   *services.NotificationService
	Admin          *services.AdminService
	Blacklist      *auth.BlacklistService
	JWT            *auth.JWTManager
}

// NewServices wires every service over one database handle. redisCache and
// objectStorage may be nil.
func NewServices(db *gorm.DB, env *config.EnvironmentVariable, redisCache *cache.RedisCache, objectStorage storage.ObjectStorage) *Services {
	uow := database.NewUnitOfWork(db, env.TX_TIMEOUT)

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        env.JWT_ACCESS_TTL,
		RefreshExpiry: env.JWT_REFRESH_TTL,
		Issuer:        env.JWT_ISSUER,
	})
	blacklist := auth.NewBlacklistService(db, redisCache)
	notifications := services.NewNotificationService(db)

	return &Services{
		Auth:           services.NewAuthService(db, uow, jwtManager, blacklist, objectStorage),
		LearningCenter: services.NewLearningCenterService(db, uow),
		Teacher:        services.NewTeacherService(db, uow),
		Group:          services.NewGroupService(db, uow),
		Student:        services.NewStudentService(db, uow),
		Enrollment:     services.NewEnrollmentService(db, uow, notifications),
		Attendance:     services.NewAttendanceService(db, uow),
		Lesson:         services.NewLessonService(db, uow),
		Payment:        services.NewPaymentService(db, uow),
		Salary:         services.NewSalaryService(db, uow),
		Notification:   notifications,
		Admin:          services.NewAdminService(db),
		Blacklist:      blacklist,
		JWT:            jwtManager,
	}
}

func SetupRoutes(app *fiber.App, store database.Storage, db *gorm.DB, env *config.EnvironmentVariable, svc *Services, redisCache *cache.RedisCache) {
	// Brute force protection is disabled without Redis
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(svc.JWT, svc.Blacklist, db)

	authHandler := auth_handlers.NewAuthHandler(svc.Auth, bruteForceProtection)
	centerHandler := center_handlers.NewLearningCenterHandler(svc.LearningCenter)
	teacherHandler := teacher_handlers.NewTeacherHandler(svc.Teacher)
	groupHandler := group_handlers.NewGroupHandler(svc.Group, svc.Enrollment)
	studentHandler := student_handlers.NewStudentHandler(svc.Student, svc.Enrollment, svc.Group)
	attendanceHandler := attendance_handlers.NewAttendanceHandler(svc.Attendance, svc.Group)
	lessonHandler := lesson_handlers.NewLessonHandler(svc.Lesson, svc.Group)
	paymentHandler := payment_handlers.NewPaymentHandler(svc.Payment, svc.Group)
	salaryHandler := salary_handlers.NewSalaryHandler(svc.Salary, svc.Teacher)
	notificationHandler := notification_handlers.NewNotificationHandler(svc.Notification)
	adminHandler := admin_handlers.NewAdminHandler(svc.Admin, svc.Enrollment)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Role sets
	admins := []string{model.RoleSuperAdmin, model.RoleAdmin}
	managers := append([]string{model.RoleLearningCenter}, admins...)
	staff := append([]string{model.RoleTeacher}, managers...)

	requireAdmin := authMiddleware.RequireAdmin()
	requireManager := authMiddleware.RequireRole(managers...)
	requireStaff := authMiddleware.RequireRole(staff...)

	// API v1 group
	api := app.Group("/api/v1")
	if env.LOG_TO_DB {
		api.Use(middleware.RequestLogger(db))
	}

	// Health check endpoint (public)
	api.Get("/ping", handlers.HandleCheckHealth(store))

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.Refresh)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Learning centers (admin)
	centers := api.Group("/learning-centers", authMiddleware.Required(), requireAdmin)
	centers.Get("/", centerHandler.ListLearningCenters)
	centers.Get("/:id", centerHandler.GetLearningCenter)
	centers.Patch("/:id/block", middleware.AdminAuditLog(db, "learning_center_block", "learning_centers"), centerHandler.BlockLearningCenter)
	centers.Patch("/:id/unblock", middleware.AdminAuditLog(db, "learning_center_unblock", "learning_centers"), centerHandler.UnblockLearningCenter)
	centers.Delete("/:id", middleware.AdminAuditLog(db, "learning_center_delete", "learning_centers"), centerHandler.DeleteLearningCenter)

	// Teachers
	teachers := api.Group("/teachers", authMiddleware.Required(), requireManager)
	teachers.Post("/", teacherHandler.CreateTeacher)
	teachers.Get("/", teacherHandler.ListTeachers)
	teachers.Get("/:id", teacherHandler.GetTeacher)
	teachers.Put("/:id", teacherHandler.UpdateTeacher)
	teachers.Delete("/:id", teacherHandler.DeleteTeacher)

	// Groups
	groups := api.Group("/groups", authMiddleware.Required())
	groups.Get("/", groupHandler.ListGroups)
	groups.Get("/:id", groupHandler.GetGroup)
	groups.Get("/:id/students", groupHandler.ListGroupStudents)
	groups.Post("/", requireManager, groupHandler.CreateGroup)
	groups.Put("/:id", requireManager, groupHandler.UpdateGroup)
	groups.Delete("/:id", requireManager, groupHandler.DeleteGroup)
	groups.Post("/:id/recompute", requireAdmin, middleware.AdminAuditLog(db, "group_recompute", "groups"), groupHandler.RecomputeGroup)
	groups.Delete("/:id/memberships/:membershipId", requireAdmin, middleware.AdminAuditLog(db, "membership_delete", "groups"), groupHandler.DeleteMembership)

	// Students
	students := api.Group("/students", authMiddleware.Required())
	students.Post("/", requireManager, studentHandler.CreateStudent)
	students.Post("/add-to-group", requireManager, studentHandler.AddToGroup)
	students.Delete("/remove-from-group", requireManager, studentHandler.RemoveFromGroup)
	students.Get("/", requireManager, studentHandler.ListStudents)
	students.Get("/learning-center/:id", requireManager, studentHandler.ListCenterStudents)
	students.Get("/:id", requireStaff, studentHandler.GetStudent)
	students.Patch("/:id", requireManager, studentHandler.UpdateStudent)
	students.Delete("/:id", requireManager, studentHandler.DeleteStudent)

	// Attendance
	attendance := api.Group("/attendance", authMiddleware.Required(), requireStaff)
	attendance.Post("/", attendanceHandler.CreateAttendance)
	attendance.Get("/", attendanceHandler.ListAttendance)
	attendance.Get("/:id", attendanceHandler.GetAttendance)
	attendance.Delete("/:id", requireManager, attendanceHandler.DeleteAttendance)

	// Lessons
	lessons := api.Group("/lessons", authMiddleware.Required(), requireStaff)
	lessons.Post("/", lessonHandler.CreateLesson)
	lessons.Get("/", lessonHandler.ListLessons)
	lessons.Get("/:id", lessonHandler.GetLesson)
	lessons.Put("/:id", lessonHandler.UpdateLesson)
	lessons.Patch("/:id/complete", lessonHandler.CompleteLesson)
	lessons.Delete("/:id", requireManager, lessonHandler.DeleteLesson)

	// Payments
	payments := api.Group("/payments", authMiddleware.Required(), requireManager)
	payments.Post("/", paymentHandler.CreatePayment)
	payments.Get("/", paymentHandler.ListPayments)
	payments.Get("/:id", paymentHandler.GetPayment)
	payments.Put("/:id", paymentHandler.UpdatePayment)
	payments.Delete("/:id", paymentHandler.DeletePayment)

	// Salaries
	salaries := api.Group("/salaries", authMiddleware.Required(), requireManager)
	salaries.Post("/", salaryHandler.CreateSalary)
	salaries.Get("/", salaryHandler.ListSalaries)
	salaries.Get("/:id", salaryHandler.GetSalary)
	salaries.Put("/:id", salaryHandler.UpdateSalary)
	salaries.Delete("/:id", salaryHandler.DeleteSalary)

	// Notifications
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Patch("/:id/read", notificationHandler.MarkAsRead)
	notifications.Post("/read-all", notificationHandler.MarkAllAsRead)

	// Admin
	admin := api.Group("/admin", authMiddleware.Required(), requireAdmin)
	admin.Get("/audit-logs", adminHandler.ListAuditLogs)
	admin.Get("/request-logs", adminHandler.ListRequestLogs)
	admin.Get("/cron-logs", adminHandler.ListCronLogs)
	admin.Post("/occupancy/reconcile", middleware.AdminAuditLog(db, "occupancy_reconcile", "groups"), adminHandler.ReconcileOccupancy)
}
