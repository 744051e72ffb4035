package datapush

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirQualityCleaner/src/processor"
	"AirQualityCleaner/src/utils"
)

// OutputColumns 输出文件的列及顺序
var OutputColumns = []string{
	processor.ColOzone,
	processor.ColSolarR,
	processor.ColWind,
	processor.ColTemp,
	processor.ColDate,
	processor.ColSensorID,
	processor.ColAirport,
	processor.ColSensorNumber,
}

// Push 按扩展名写出清洗结果，已存在的文件会被覆盖
func Push(df dataframe.DataFrame, filePath, sheetName string) error {
	if err := ensureDir(filepath.Dir(filePath)); err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		return WriteXLSX(df, filePath, sheetName)
	}
	return WriteCSV(df, filePath)
}

// ensureDir 确保目录存在
func ensureDir(dirPath string) error {
	if info, err := os.Stat(dirPath); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", dirPath)
	}
	return os.MkdirAll(dirPath, 0755)
}

// selectColumns 校验并按 OutputColumns 选择列
func selectColumns(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for _, name := range OutputColumns {
		if !utils.HasColumn(df, name) {
			return dataframe.DataFrame{}, fmt.Errorf("输出列 %s 不存在", name)
		}
	}
	out := df.Select(OutputColumns)
	return out, out.Err
}

// formatCell 输出单元格的文本形式
// wind 按 float32 的最短表示输出，date 为毫秒精度时间
func formatCell(name string, el series.Element) string {
	if el.IsNA() {
		return ""
	}
	switch {
	case name == processor.ColDate:
		ms, err := el.Int()
		if err != nil {
			return ""
		}
		return processor.FormatDate(ms)
	case el.Type() == series.Float:
		return strconv.FormatFloat(el.Float(), 'f', -1, 32)
	case el.Type() == series.Int:
		v, err := el.Int()
		if err != nil {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return utils.UnescapeNaN(el.String())
	}
}

// SelectOutput 选择输出列并转换为字符串列，缺失值为空字符串
// 字面量 "NaN" 在结果中被 gota 记为缺失，但 Records/WriteCSV 仍输出 "NaN"
func SelectOutput(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	selected, err := selectColumns(df)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	cols := make([]series.Series, len(OutputColumns))
	for j, name := range OutputColumns {
		src := selected.Col(name)
		vals := make([]string, src.Len())
		for i := range vals {
			vals[i] = formatCell(name, src.Elem(i))
		}
		cols[j] = series.New(vals, series.String, name)
	}

	out := dataframe.New(cols...)
	return out, out.Err
}

// WriteCSV 写出带表头的csv文件
func WriteCSV(df dataframe.DataFrame, filePath string) error {
	out, err := SelectOutput(df)
	if err != nil {
		return err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := out.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		f.Close()
		return fmt.Errorf("写入csv失败: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("写入csv失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}
	return nil
}

// WriteXLSX 写出xlsx文件，数值列保持数值类型
func WriteXLSX(df dataframe.DataFrame, filePath, sheetName string) error {
	selected, err := selectColumns(df)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, selected.Nrow()+1)
	header := make([]interface{}, len(OutputColumns))
	for j, name := range OutputColumns {
		header[j] = name
	}
	rows = append(rows, header)

	cols := make([]series.Series, len(OutputColumns))
	for j, name := range OutputColumns {
		cols[j] = selected.Col(name)
	}
	for i := 0; i < selected.Nrow(); i++ {
		row := make([]interface{}, len(cols))
		for j, name := range OutputColumns {
			row[j] = excelCell(name, cols[j].Elem(i))
		}
		rows = append(rows, row)
	}

	return utils.SaveToExcel(rows, filePath, sheetName)
}

func excelCell(name string, el series.Element) interface{} {
	if el.IsNA() {
		return nil
	}
	switch {
	case name == processor.ColDate:
		return formatCell(name, el)
	case el.Type() == series.Float:
		v, err := strconv.ParseFloat(formatCell(name, el), 64)
		if err != nil {
			return nil
		}
		return v
	case el.Type() == series.Int:
		v, err := el.Int()
		if err != nil {
			return nil
		}
		return v
	default:
		return formatCell(name, el)
	}
}
