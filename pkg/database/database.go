package database

import (
	"examcell_backend/internal/config"
	"examcell_backend/internal/model"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 建表；mysql 以外的驱动（测试用 sqlite）同样适用
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Department{},
		&model.Program{},
		&model.Course{},
		&model.Regulation{},
		&model.SectionRule{},
		&model.CourseOffering{},
		&model.ModuleInfo{},
		&model.QuestionBank{},
	)
	if err != nil {
		return err
	}
	log.Println("Database migration completed")
	return nil
}

// Seed 写入默认角色和管理员账号，已存在则跳过
func Seed(db *gorm.DB, admin config.AdminConfig) error {
	for _, name := range model.AllRoles {
		role := model.Role{RoleName: name}
		if err := db.Where("role_name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}

	if admin.Username == "" || admin.Password == "" {
		return nil
	}

	var existing model.User
	err := db.Where("username = ?", admin.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	var adminRole model.Role
	if err := db.Where("role_name = ?", model.Admin).First(&adminRole).Error; err != nil {
		return err
	}
	name := admin.Name
	if name == "" {
		name = admin.Username
	}
	user := &model.User{
		Username: admin.Username,
		Name:     name,
		Password: string(hashed),
		Roles:    []model.Role{adminRole},
	}
	if err := db.Create(user).Error; err != nil {
		return err
	}
	log.Printf("Default admin %q created", admin.Username)
	return nil
}
