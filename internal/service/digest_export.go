package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"superviseme/backend/internal/dto"
)

const digestSheet = "Weekly digest"

// digestXLSXType .xlsx 附件的 MIME 类型
const digestXLSXType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportDigestWorkbook 生成与邮件正文相同内容的周报工作簿
func ExportDigestWorkbook(d *dto.WeeklyDigest) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(digestSheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(digestSheet, "A", "A", 24)
	f.SetColWidth(digestSheet, "B", "B", 40)
	f.SetColWidth(digestSheet, "C", "C", 12)
	f.SetColWidth(digestSheet, "D", "D", 22)
	f.SetColWidth(digestSheet, "E", "E", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	inactiveStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})

	// 标题行
	f.SetCellValue(digestSheet, "A1", fmt.Sprintf("%s — %s to %s", d.SupervisorName, d.PeriodStart, d.PeriodEnd))
	f.MergeCell(digestSheet, "A1", "E1")
	f.SetCellStyle(digestSheet, "A1", "E1", headerStyle)

	// 表头
	headers := []string{"Student", "Thesis", "Updates", "Last activity", "Inactive"}
	for i, h := range headers {
		f.SetCellValue(digestSheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(digestSheet, "A2", "E2", headerStyle)

	// 数据行
	row := 3
	for _, st := range d.Students {
		f.SetCellValue(digestSheet, cell("A", row), st.StudentName)
		f.SetCellValue(digestSheet, cell("B", row), st.ThesisTitle)
		f.SetCellValue(digestSheet, cell("C", row), st.UpdateCount)
		f.SetCellValue(digestSheet, cell("D", row), st.LastActivity)
		if st.Inactive {
			f.SetCellValue(digestSheet, cell("E", row), "yes")
			f.SetCellStyle(digestSheet, cell("A", row), cell("E", row), inactiveStyle)
		} else {
			f.SetCellValue(digestSheet, cell("E", row), "no")
		}
		row++
	}

	// 合计
	f.SetCellValue(digestSheet, cell("A", row), "Total")
	f.SetCellValue(digestSheet, cell("C", row), d.TotalUpdates)
	f.SetCellValue(digestSheet, cell("E", row), d.InactiveCount)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("weekly-digest-%s.xlsx", d.PeriodEnd)
	return buf, filename, nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
