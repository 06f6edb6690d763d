// Package export 将报告包与过程性文件渲染为可下载的 Word / HTML 文档。
package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// MIMETypeDOCX Word 文档的 MIME 类型
const MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>
`

const relsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
`

const documentFooter = `
    <w:sectPr>
      <w:pgSz w:w="11906" w:h="16838"/>
      <w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>
      <w:cols w:space="708"/>
      <w:docGrid w:linePitch="360"/>
    </w:sectPr>
  </w:body>
</w:document>
`

// ReportDOCX 导出报告草案
func ReportDOCX(pkg *model.ESGReportPackage) (string, []byte, error) {
	paragraphs := []string{
		"报告草案 - " + pkg.Company.Name,
		"",
		"报告年度：" + strconv.Itoa(pkg.Company.ReportingYear),
		"行业：" + pkg.Company.Industry,
		"地区：" + pkg.Company.Region,
		"",
	}
	paragraphs = append(paragraphs, splitLines(pkg.CompiledReport)...)

	data, err := paragraphsToDOCX(paragraphs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build report docx: %w", err)
	}
	return pkg.PackageID + "-report-draft.docx", data, nil
}

// DocumentDOCX 导出单份过程性文件
func DocumentDOCX(doc model.ProcessDocument) (string, []byte, error) {
	paragraphs := []string{
		doc.Title,
		"",
		"分类：" + doc.Category,
		"生成日期：" + doc.CreatedAt.String(),
	}
	if len(doc.GuidelineLinks) > 0 {
		paragraphs = append(paragraphs, "参考标准："+strings.Join(doc.GuidelineLinks, ", "))
	}
	paragraphs = append(paragraphs, "", "摘要")
	paragraphs = append(paragraphs, splitLines(doc.Summary)...)
	if len(doc.Details) > 0 {
		paragraphs = append(paragraphs, "", "详细说明")
		for _, detail := range doc.Details {
			paragraphs = append(paragraphs, detail.Label+"：")
			paragraphs = append(paragraphs, splitLines(detail.Text)...)
			paragraphs = append(paragraphs, "")
		}
	}

	data, err := paragraphsToDOCX(paragraphs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build document docx: %w", err)
	}
	return fmt.Sprintf("%s-%s.docx", doc.Identifier, Slugify(doc.Title)), data, nil
}

// Slugify 生成文件名片段：空格转为连字符，仅保留字母、数字、连字符与下划线
func Slugify(value string) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), " ", "-")
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// splitLines 按行拆分文本，每行对应一个段落；空文本返回一个空段落
func splitLines(text string) []string {
	if text == "" {
		return []string{""}
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return lines
}

func writeParagraph(b *bytes.Buffer, text string) error {
	if text == "" {
		b.WriteString("<w:p/>")
		return nil
	}
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	if err := xml.EscapeText(b, []byte(text)); err != nil {
		return err
	}
	b.WriteString("</w:t></w:r></w:p>")
	return nil
}

func paragraphsToDOCX(paragraphs []string) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(documentHeader)
	for _, p := range paragraphs {
		if err := writeParagraph(&body, p); err != nil {
			return nil, err
		}
	}
	body.WriteString(documentFooter)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content []byte
	}{
		{name: "[Content_Types].xml", content: []byte(contentTypesXML)},
		{name: "_rels/.rels", content: []byte(relsXML)},
		{name: "word/document.xml", content: body.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
