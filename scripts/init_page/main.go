package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/phygital/internal/config"
	"github.com/phygital/internal/db"
	"github.com/phygital/internal/service"
)

// 本地开通一个新页面，绕过 HTTP 端点直接写库。
// 生产环境请使用带运维密钥的 /api/pages 接口。
func main() {
	slug := flag.String("slug", "", "页面地址（小写字母、数字和连字符）")
	title := flag.String("title", "", "页面标题")
	password := flag.String("password", "", "管理员密码，留空则创建无密码的公开页面")
	flag.Parse()

	if *slug == "" {
		log.Fatal("必须指定 -slug")
	}

	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	pages := service.NewPageService(db.DB)
	page, err := pages.Create(*slug, service.PageInput{
		Title:      *title,
		Credential: *password,
	})
	if err != nil {
		log.Fatal("创建页面失败:", err)
	}

	fmt.Println("页面创建成功")
	fmt.Printf("地址: /%s\n", page.Slug)
	if *password == "" {
		fmt.Println("未设置密码，该页面的编辑入口对所有人开放")
	}
}
