package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Languages lists the README translations in output order.
var Languages = []language.Tag{language.English, language.SimplifiedChinese}

// messages maps catalog keys to their English and Simplified Chinese text.
var messages = map[string][2]string{
	"readme.language_switch":  {"English | [简体中文](%s)", "[English](%s) | 简体中文"},
	"readme.no_description":   {"No description has been provided yet.", "暂无项目描述。"},
	"readme.overview":         {"Overview", "概述"},
	"readme.summary":          {"This is a %s project with %d files and %d lines.", "这是一个 %s 项目，包含 %d 个文件，共 %d 行。"},
	"readme.summary_nolang":   {"This project contains %d files and %d lines.", "本项目包含 %d 个文件，共 %d 行。"},
	"readme.languages":        {"Languages: %s.", "使用的语言：%s。"},
	"readme.getting_started":  {"Getting Started", "快速开始"},
	"readme.install":          {"Install the dependencies:", "安装依赖："},
	"readme.no_install":       {"No dependency manifest was found; the project has no install step.", "未找到依赖清单，无需安装步骤。"},
	"readme.usage":            {"Usage", "使用方法"},
	"readme.entry_points":     {"Entry points:", "程序入口："},
	"readme.scripts":          {"Available scripts:", "可用脚本："},
	"readme.testing":          {"Testing", "测试"},
	"readme.tests_summary":    {"The project has %d test files with %d test cases.", "项目包含 %d 个测试文件，共 %d 个测试用例。"},
	"readme.no_tests":         {"No tests were found.", "未发现测试。"},
	"readme.run_tests":        {"Run the tests with:", "运行测试："},
	"readme.structure":        {"Project Structure", "项目结构"},
	"readme.col_directory":    {"Directory", "目录"},
	"readme.col_files":        {"Files", "文件数"},
	"readme.root_only":        {"All files live in the project root.", "所有文件均位于项目根目录。"},
	"readme.documentation":    {"Documentation", "文档"},
	"readme.doc_overview":     {"Project overview", "项目概览"},
	"readme.doc_testing":      {"Testing report", "测试报告"},
	"readme.license":          {"License", "许可证"},
	"readme.license_text":     {"This project is licensed under %s.", "本项目采用 %s 许可证。"},
	"readme.generated":        {"This file was generated by %s.", "本文件由 %s 生成。"},
	"readme.repository":       {"Source: %s", "源码仓库：%s"},
	"readme.primary_language": {"Primary language: %s.", "主要语言：%s。"},
}

func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, texts := range messages {
		for i, tag := range Languages {
			if err := b.SetString(tag, key, texts[i]); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func newPrinter(cat catalog.Catalog, tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}
