// 导入院系、专业、课程和法规等基础数据
//
// 数据文件为 YAML，已存在的记录（名称或课程代码重复）跳过。
// 首次部署时在 -migrate-only 之后执行一次即可。
//
// 用法: go run scripts/seed.go [-file configs/seed.yaml]

package main

import (
	"errors"
	"examcell_backend/internal/config"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/service"
	"examcell_backend/internal/util"
	"examcell_backend/pkg/database"
	"examcell_backend/pkg/logger"
	"flag"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Departments []struct {
		Name         string `yaml:"name"`
		Abbreviation string `yaml:"abbreviation"`
	} `yaml:"departments"`
	Programs []string `yaml:"programs"`
	Courses  []struct {
		Code    string  `yaml:"code"`
		Title   string  `yaml:"title"`
		Credits float64 `yaml:"credits"`
	} `yaml:"courses"`
	Regulations []struct {
		Name     string `yaml:"name"`
		Sections []struct {
			Name         string `yaml:"name"`
			Marks        int    `yaml:"marks"`
			MinQuestions int    `yaml:"min_questions"`
		} `yaml:"sections"`
	} `yaml:"regulations"`
}

// report 重复记录只计数，其他错误直接退出
func report(kind, name string, err error, created, skipped *int) {
	switch {
	case err == nil:
		*created++
	case errors.Is(err, util.ErrDuplicateRecord):
		*skipped++
	default:
		log.Fatalf("导入%s %q 失败: %v", kind, name, err)
	}
}

func main() {
	file := flag.String("file", "configs/seed.yaml", "基础数据文件")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取数据文件: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("解析数据文件失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	offeringRepo := repository.NewCourseOfferingRepository(db)
	academic := service.NewAcademicService(
		repository.NewDepartmentRepository(db),
		repository.NewProgramRepository(db),
		repository.NewCourseRepository(db),
		offeringRepo,
		repository.NewUserRepository(db),
	)
	regulations := service.NewRegulationService(repository.NewRegulationRepository(db), offeringRepo)

	var created, skipped int
	for _, d := range seed.Departments {
		_, err := academic.CreateDepartment(service.DepartmentInput{DepartmentName: d.Name, Abbreviation: d.Abbreviation})
		report("院系", d.Name, err, &created, &skipped)
	}
	for _, p := range seed.Programs {
		_, err := academic.CreateProgram(service.ProgramInput{ProgramName: p})
		report("专业", p, err, &created, &skipped)
	}
	for _, c := range seed.Courses {
		_, err := academic.CreateCourse(service.CourseInput{CourseCode: c.Code, CourseTitle: c.Title, Credits: c.Credits})
		report("课程", c.Code, err, &created, &skipped)
	}
	for _, r := range seed.Regulations {
		in := service.RegulationInput{RegulationName: r.Name}
		for _, s := range r.Sections {
			in.SectionRules = append(in.SectionRules, service.SectionRuleInput{
				SectionName:       s.Name,
				Marks:             s.Marks,
				MinQuestionsCount: s.MinQuestions,
			})
		}
		_, err := regulations.Create(in)
		report("法规", r.Name, err, &created, &skipped)
	}

	log.Printf("完成！新增 %d 条，跳过 %d 条已存在记录", created, skipped)
}
