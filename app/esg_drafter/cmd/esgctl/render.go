package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/storage"
)

var (
	accent     = lipgloss.Color("#2e7d32")
	danger     = lipgloss.Color("#e53935")
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(danger)
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printSummaries(items []storage.Summary) {
	if len(items) == 0 {
		fmt.Println("暂无报告包")
		return
	}
	t := newTable("编号", "企业", "年度", "文件数", "创建时间")
	for _, item := range items {
		t.Row(item.PackageID, item.CompanyName, strconv.Itoa(item.ReportingYear),
			strconv.Itoa(item.Documents), item.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Println(t)
}

func printBatch(results []service.BatchResult) {
	t := newTable("企业", "报告包", "结果")
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			t.Row(r.Company, "-", errorStyle.Render(r.Error))
			continue
		}
		t.Row(r.Company, r.Package.PackageID, "成功")
	}
	fmt.Println(t)
	fmt.Printf("共 %d 家，成功 %d，失败 %d\n", len(results), len(results)-failed, failed)
}

func printPackage(pkg *model.ESGReportPackage) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(packageMarkdown(pkg))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// packageMarkdown 将报告包整理为终端展示用的 Markdown
func packageMarkdown(pkg *model.ESGReportPackage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %d 报告包\n\n", pkg.Company.Name, pkg.Company.ReportingYear)
	fmt.Fprintf(&b, "`%s` · 生成于 %s\n\n", pkg.PackageID, pkg.CreatedAt.Format("2006-01-02 15:04"))

	b.WriteString("## 利益相关方\n\n| 类别 | 优先级 | 关注点 | 沟通渠道 |\n| --- | --- | --- | --- |\n")
	for _, s := range pkg.StakeholderMap {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(s.Category), s.Priority,
			cell(strings.Join(s.Expectations, "；")), cell(strings.Join(s.EngagementChannels, "、")))
	}

	if pkg.MaterialityMatrix != nil {
		b.WriteString("\n## 重要性矩阵\n\n| 议题 | 影响力 | 重要性 | 象限 |\n| --- | --- | --- | --- |\n")
		for _, t := range pkg.MaterialityMatrix.Topics {
			fmt.Fprintf(&b, "| %s | %.1f | %.1f | %s |\n", cell(t.Name), t.ImpactScore, t.InfluenceScore,
				model.QuadrantOf(t.ImpactScore, t.InfluenceScore))
		}
	}

	b.WriteString("\n## 过程性文件\n")
	for _, doc := range pkg.ProcessDocuments {
		fmt.Fprintf(&b, "\n### %s\n\n`%s` · %s · %s\n\n%s\n\n", doc.Title, doc.Identifier, doc.Category, doc.CreatedAt, doc.Summary)
		for _, d := range doc.Details {
			fmt.Fprintf(&b, "- **%s**：%s\n", d.Label, d.Text)
		}
	}

	b.WriteString("\n## 报告草案\n\n")
	prevBullet := false
	for _, line := range strings.Split(pkg.CompiledReport, "\n") {
		bullet := strings.HasPrefix(line, "- ")
		if !bullet || !prevBullet {
			b.WriteString("\n")
		}
		b.WriteString(line + "\n")
		prevBullet = bullet
	}
	return b.String()
}
