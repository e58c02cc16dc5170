package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	tmplOnce    sync.Once
	tmplErr     error
	htmlTmpls   *htmltmpl.Template
	textTmpls   *texttmpl.Template
	tmplFuncMap = map[string]interface{}{
		"inc": func(i int) int { return i + 1 },
	}
)

func loadTemplates() {
	htmlTmpls, tmplErr = htmltmpl.New("").Funcs(htmltmpl.FuncMap(tmplFuncMap)).ParseFS(templatesFS, "templates/*.gohtml")
	if tmplErr != nil {
		return
	}
	textTmpls, tmplErr = texttmpl.New("").Funcs(texttmpl.FuncMap(tmplFuncMap)).ParseFS(templatesFS, "templates/*.txt")
}

// Render 渲染同名的 .txt 与 .gohtml 模板，返回 (纯文本, HTML)
func Render(name string, data interface{}) (string, string, error) {
	tmplOnce.Do(loadTemplates)
	if tmplErr != nil {
		return "", "", fmt.Errorf("加载邮件模板失败: %w", tmplErr)
	}

	var text, html bytes.Buffer
	if err := textTmpls.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("渲染纯文本模板 %s 失败: %w", name, err)
	}
	if err := htmlTmpls.ExecuteTemplate(&html, name+".gohtml", data); err != nil {
		return "", "", fmt.Errorf("渲染 HTML 模板 %s 失败: %w", name, err)
	}
	return text.String(), html.String(), nil
}
