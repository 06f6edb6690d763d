package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出已生成的报告包",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		items, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		if listJSON {
			return printJSON(items)
		}
		printSummaries(items)
		return nil
	},
}

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <package-id>",
	Short: "查看报告包",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		pkg, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if showJSON {
			return printJSON(pkg)
		}
		return printPackage(pkg)
	},
}

var confirmReq service.ConfirmRequest

var confirmCmd = &cobra.Command{
	Use:   "confirm <package-id>",
	Short: "确认报告草案，并在报告包中追加确认记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		pkg, err := svc.Confirm(cmd.Context(), args[0], confirmReq)
		if err != nil {
			return err
		}
		record := pkg.ProcessDocuments[len(pkg.ProcessDocuments)-1]
		fmt.Printf("%s %s\n", titleStyle.Render("已确认"), record.Summary)
		fmt.Printf("确认记录: %s\n", record.Identifier)
		return nil
	},
}

var (
	exportFormat string
	exportDoc    string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <package-id>",
	Short: "导出报告草案或单份过程性文件",
	Example: `  esgctl export pkg-1a2b3c4d5e6f
  esgctl export pkg-1a2b3c4d5e6f --format html -o out/
  esgctl export pkg-1a2b3c4d5e6f --doc doc-0a1b2c3d4e5f`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		var out *service.Export
		if exportDoc != "" {
			out, err = svc.ExportDocument(cmd.Context(), args[0], exportDoc)
		} else {
			out, err = svc.ExportReport(cmd.Context(), args[0], exportFormat)
		}
		if err != nil {
			return err
		}

		if err := os.MkdirAll(exportOut, 0755); err != nil {
			return err
		}
		path := filepath.Join(exportOut, out.Filename)
		if err := os.WriteFile(path, out.Data, 0644); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", path, err)
		}
		appLog.Infof("已导出 %s (%d 字节)", path, len(out.Data))
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd, confirmCmd, exportCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "以 JSON 输出")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "以 JSON 输出")

	confirmCmd.Flags().StringVar(&confirmReq.Reviewer, "reviewer", "", "确认人")
	confirmCmd.Flags().StringVar(&confirmReq.Comment, "comment", "", "确认意见")
	confirmCmd.Flags().StringSliceVar(&confirmReq.DocumentIDs, "doc", nil, "确认的过程性文件编号，可重复")
	_ = confirmCmd.MarkFlagRequired("reviewer")

	exportCmd.Flags().StringVar(&exportFormat, "format", "docx", "报告格式: docx 或 html")
	exportCmd.Flags().StringVar(&exportDoc, "doc", "", "导出指定过程性文件")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "输出目录")
}
