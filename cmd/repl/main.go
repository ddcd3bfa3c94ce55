package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"medical-text2sql-be/internal/bootstrap"
	"medical-text2sql-be/internal/config"
	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/logger"

	"github.com/fatih/color"
)

const sessionID = "user_session"

func main() {
	cfg := config.Load()

	container, err := bootstrap.NewContainerWithLogger(cfg, logger.NewFileOnlyLogger(cfg.App.LogFilePath))
	if err != nil {
		color.Red("启动失败: %v", err)
		os.Exit(1)
	}
	defer container.Close()

	ctx := context.Background()
	if err := container.SessionService.Restore(ctx); err != nil {
		color.Yellow("未恢复历史会话: %v", err)
	}
	defer func() {
		if err := container.SessionService.Persist(ctx); err != nil {
			color.Yellow("会话保存失败: %v", err)
		}
	}()
	if err := container.HistoryConsumerService.Consume(ctx); err != nil {
		color.Yellow("审计记录不可用: %v", err)
	}

	color.Cyan("欢迎使用text2sql系统，输入 exit 退出，reset 清空上下文，context 查看上下文。")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		color.Yellow("\n请输入想要查询的内容：")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(question) {
		case "exit", "quit":
			color.Cyan("对话结束。")
			return
		case "":
			color.Red("查询内容不能为空，请输入有效的内容。")
			continue
		case "reset":
			if err := container.SessionService.Reset(ctx, sessionID); err != nil {
				color.Red("%v", err)
			} else {
				color.Green("上下文已清空。")
			}
			continue
		case "context":
			res, err := container.SessionService.Context(ctx, sessionID)
			if err != nil {
				color.Red("%v", err)
				continue
			}
			fmt.Println(res.Summary)
			continue
		}

		resp, err := container.QueryService.Query(ctx, &dto.QueryRequest{Question: question, ConversationId: sessionID})
		if err != nil {
			color.Red("处理失败: %v", err)
			continue
		}
		printResponse(resp)
	}
}

func printResponse(resp *dto.QueryResponse) {
	if resp.Clarification {
		color.Yellow("%s", resp.Message)
		return
	}
	if resp.Sql != "" {
		color.Green("\n生成的SQL:")
		fmt.Println(resp.Sql)
	}
	if resp.Error != "" {
		color.Red("%s", resp.Error)
	}
	if resp.TopicShift {
		color.Magenta("(检测到话题转换)")
	}

	color.Green("\n医疗数据分析摘要:")
	fmt.Println(resp.Message)

	if len(resp.Charts) == 0 {
		fmt.Println("\n未生成任何图表")
	}
	for _, c := range resp.Charts {
		fmt.Printf("\n图表: %s  %s (x=%s, y=%s)\n", c.Kind, c.Title, c.XColumn, strings.Join(c.YColumns, ","))
	}

	if len(resp.Rows) > 0 {
		color.Green("\n数据预览 (前10行):")
		for _, row := range resp.Rows {
			line, _ := json.Marshal(row)
			fmt.Println(string(line))
		}
	}
}
