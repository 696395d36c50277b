// 从 Excel 导入题库
//
// 工作簿包含 quiz 和 speaking 两个工作表，格式见 internal/importer。
//
// 用法: go run scripts/import_catalog.go -file catalog.xlsx

package main

import (
	"context"
	"flag"
	"log"
	"vocab_backend/internal/config"
	"vocab_backend/internal/importer"
	"vocab_backend/internal/repository"
	"vocab_backend/pkg/database"
	"vocab_backend/pkg/logger"

	"github.com/xuri/excelize/v2"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	file := flag.String("file", "", "xlsx 文件路径")
	flag.Parse()

	if *file == "" {
		log.Fatal("缺少 -file 参数")
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Sync()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	f, err := excelize.OpenFile(*file)
	if err != nil {
		log.Fatalf("打开文件失败: %v", err)
	}
	defer f.Close()

	res, err := importer.ImportWorkbook(context.Background(), f, repository.NewCatalogRepository(db))
	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}

	for _, e := range res.Errors {
		log.Printf("跳过: %s", e)
	}
	log.Printf("完成！题目 %d 道，单词 %d 个，跳过 %d 行", res.Questions, res.Words, res.Skipped)
}
