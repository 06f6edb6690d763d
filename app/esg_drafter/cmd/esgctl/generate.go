package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

var (
	genProfile model.CompanyProfile
	genFile    string
	genPeers   []string
	genJSON    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成报告草案",
	Example: `  esgctl generate --name 示例制造 --year 2024 --industry 制造业
  esgctl generate -f company.yaml --peer "上汽集团:碳中和路线图"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.GenerateRequest{Company: genProfile}
		if genFile != "" {
			if err := decodeInput(genFile, &req); err != nil {
				return err
			}
		}
		for _, raw := range genPeers {
			hint, err := parsePeer(raw)
			if err != nil {
				return err
			}
			req.Peers = append(req.Peers, hint)
		}

		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		pkg, err := svc.Generate(cmd.Context(), req)
		if err != nil {
			return err
		}
		if genJSON {
			return printJSON(pkg)
		}
		return printPackage(pkg)
	},
}

var batchJSON bool

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "批量生成报告草案",
	Long:  "从 YAML 或 JSON 文件读取企业列表，并发生成报告草案。单个企业失败不影响其他企业。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var reqs []service.GenerateRequest
		if err := decodeInput(args[0], &reqs); err != nil {
			return err
		}

		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := svc.GenerateBatch(cmd.Context(), reqs)
		if err != nil {
			return err
		}
		if batchJSON {
			return printJSON(results)
		}
		printBatch(results)
		return nil
	},
}

// decodeInput 读取 YAML 或 JSON 文件，字段名与 JSON 标签一致
func decodeInput(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(encoded, v); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

// parsePeer 解析 "名称:关注点[:URL]"，URL 中的冒号保持原样
func parsePeer(raw string) (model.PeerHint, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return model.PeerHint{}, fmt.Errorf("同业格式应为 名称:关注点[:URL]，实际为 %q", raw)
	}
	hint := model.PeerHint{Name: strings.TrimSpace(parts[0]), Focus: strings.TrimSpace(parts[1])}
	if len(parts) == 3 {
		hint.URL = strings.TrimSpace(parts[2])
	}
	return hint, nil
}

func init() {
	rootCmd.AddCommand(generateCmd, batchCmd)

	f := generateCmd.Flags()
	f.StringVar(&genProfile.Name, "name", "", "企业名称")
	f.IntVar(&genProfile.ReportingYear, "year", 0, "报告年度")
	f.StringVar(&genProfile.Industry, "industry", "", "所属行业")
	f.StringVar(&genProfile.Region, "region", "", "所在地区")
	f.StringVar(&genProfile.Description, "description", "", "企业描述")
	f.StringVar(&genProfile.StrategyFocus, "strategy", "", "战略重点")
	f.StringVarP(&genFile, "file", "f", "", "从 YAML/JSON 文件读取生成请求")
	f.StringArrayVar(&genPeers, "peer", nil, "同业企业，格式 名称:关注点[:URL]，可重复")
	f.BoolVar(&genJSON, "json", false, "以 JSON 输出报告包")

	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "以 JSON 输出结果")
}
