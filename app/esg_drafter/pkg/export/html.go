package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// htmlData 用于模板渲染的数据
type htmlData struct {
	Package   *model.ESGReportPackage
	Date      string
	Quadrants []quadrantView
	Lines     []string
}

type quadrantView struct {
	Label  string
	Topics []string
}

const htmlTpl = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Package.Company.Name }} | 可持续发展报告草案</title>
    <style>
        :root {
            --primary-color: #15803d;
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        h1 { font-size: 2.2rem; margin: 0 0 10px 0; }
        .date-info { color: var(--text-secondary); }
        .card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.05);
            border: 1px solid var(--border-color);
        }
        .card h2 { margin-top: 0; border-bottom: 2px solid var(--primary-color); padding-bottom: 10px; display: inline-block; }
        .matrix { display: grid; gap: 16px; grid-template-columns: 1fr 1fr; }
        .quadrant { border: 1px dashed var(--border-color); border-radius: 8px; padding: 12px; }
        .quadrant h4 { margin: 0 0 8px 0; color: #475569; }
        .doc-meta { color: var(--text-secondary); font-size: 0.9rem; }
        .report p { margin: 4px 0; }
        .priority { padding: 2px 10px; border-radius: 20px; font-size: 0.8rem; background: #f1f5f9; }
        .priority-High { background: #dcfce7; color: #166534; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{ .Package.Company.Name }} {{ .Package.Company.ReportingYear }} 年可持续发展报告草案</h1>
            <div class="date-info">{{ .Date }} • {{ .Package.Company.Industry }} • 过程性文件 {{ len .Package.ProcessDocuments }} 份</div>
        </header>

        <div class="card">
            <h2>利益相关方</h2>
            <ul>
                {{range .Package.StakeholderMap}}
                <li><strong>{{.Category}}</strong> <span class="priority priority-{{.Priority}}">{{.Priority}}</span> {{.Description}}</li>
                {{end}}
            </ul>
        </div>

        <div class="card">
            <h2>重要性矩阵</h2>
            <div class="matrix">
                {{range .Quadrants}}
                <div class="quadrant">
                    <h4>{{.Label}}</h4>
                    <ul>{{range .Topics}}<li>{{.}}</li>{{end}}</ul>
                </div>
                {{end}}
            </div>
        </div>

        <div class="card report">
            <h2>报告正文</h2>
            {{range .Lines}}<p>{{.}}</p>
            {{end}}
        </div>

        {{range .Package.ProcessDocuments}}
        <div class="card">
            <h2>{{.Title}}</h2>
            <div class="doc-meta">{{.Identifier}} • {{.Category}} • {{.CreatedAt}}</div>
            <p>{{.Summary}}</p>
            <ul>
                {{range .Details}}
                <li><strong>{{.Label}}</strong>：{{.Text}}</li>
                {{end}}
            </ul>
        </div>
        {{end}}
    </div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTpl))

// ReportHTML 渲染报告包的单页 HTML
func ReportHTML(pkg *model.ESGReportPackage) ([]byte, error) {
	data := htmlData{
		Package: pkg,
		Date:    pkg.CreatedAt.Format("2006-01-02"),
		Lines:   strings.Split(pkg.CompiledReport, "\n"),
	}
	if pkg.MaterialityMatrix != nil {
		for _, label := range model.Quadrants() {
			data.Quadrants = append(data.Quadrants, quadrantView{Label: label, Topics: pkg.MaterialityMatrix.QuadrantSummary[label]})
		}
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report html: %w", err)
	}
	return buf.Bytes(), nil
}
