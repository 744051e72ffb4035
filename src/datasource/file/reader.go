// reader.go
package file

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"AirQualityCleaner/src/utils"
)

// ReadOptions 读取配置
type ReadOptions struct {
	Schema     Schema   // 为空时使用 AirQualitySchema
	NullValues []string // 为空时使用 NullValues
	Charset    string   // csv 文件编码
	SheetName  string   // xlsx 工作表，为空时取第一个
}

func (o ReadOptions) withDefaults() ReadOptions {
	if len(o.Schema) == 0 {
		o.Schema = AirQualitySchema
	}
	if len(o.NullValues) == 0 {
		o.NullValues = NullValues
	}
	return o
}

// loadOptions 全部列先按字符串读取，类型转换由 applySchema 完成
// 空字段同样视为缺失值
func (o ReadOptions) loadOptions() []dataframe.LoadOption {
	nulls := append([]string{""}, o.NullValues...)
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nulls),
	}
}

// ReadToDataFrame 按扩展名选择读取方式
func ReadToDataFrame(filePath string, opts ReadOptions) (dataframe.DataFrame, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		return ReadXLSXToDataFrame(filePath, opts)
	}
	return ReadCSVToDataFrame(filePath, opts)
}

// ReadCSVToDataFrame 读取带表头的csv文件并按Schema转换类型
func ReadCSVToDataFrame(filePath string, opts ReadOptions) (dataframe.DataFrame, error) {
	opts = opts.withDefaults()

	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	r, err := charsetReader(opts.Charset, f)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read csv file %s: %w", filePath, err)
	}

	df, err := loadRecords(records, opts)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", filePath, err)
	}

	df, err = applySchema(df, opts.Schema)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", filePath, err)
	}
	return df, nil
}

// loadRecords 将表头+数据行转换为全字符串列的DataFrame
// 只有表头时返回零行的DataFrame
func loadRecords(records [][]string, opts ReadOptions) (dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("输入文件没有表头")
	}
	if len(records) == 1 {
		cols := make([]series.Series, len(records[0]))
		for i, name := range records[0] {
			cols[i] = series.New([]string{}, series.String, name)
		}
		return dataframe.New(cols...), nil
	}

	if err := guardNaNLiterals(records, opts); err != nil {
		return dataframe.DataFrame{}, err
	}

	df := dataframe.LoadRecords(records, opts.loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// guardNaNLiterals 在交给 gota 之前处理字面量 "NaN"(gota 总把它读成缺失值)
// Int32 列中的 "NaN" 按类型不匹配报错，String 列转义后保留原值
// Float32 列的 "NaN" 不是数值，按缺失值处理
func guardNaNLiterals(records [][]string, opts ReadOptions) error {
	if utils.Contains(opts.NullValues, "NaN") {
		return nil
	}

	types := make(map[string]ColumnType, len(opts.Schema))
	for _, col := range opts.Schema {
		types[col.Name] = col.Type
	}

	for j, name := range records[0] {
		typ, ok := types[name]
		if !ok {
			typ = String
		}
		for i := 1; i < len(records); i++ {
			if j >= len(records[i]) || records[i][j] != "NaN" {
				continue
			}
			switch typ {
			case Int32:
				_, err := coerceValue(records[i][j], typ)
				return &SchemaMismatchError{Column: name, Row: i, Value: records[i][j], Type: typ, Err: err}
			case String:
				records[i][j] = utils.EscapeNaN(records[i][j])
			}
		}
	}
	return nil
}

// charsetReader 根据编码包装输入流
// utf-8 输入会去掉开头的 BOM
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(input, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "gbk", "gb2312":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}

// ReadXLSXToDataFrame 读取xlsx工作表(第一行为表头)并按Schema转换类型
func ReadXLSXToDataFrame(filePath string, opts ReadOptions) (dataframe.DataFrame, error) {
	opts = opts.withDefaults()

	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open xlsx file: %w", err)
	}

	// 2. 获取工作表
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表: %s", filePath)
	}
	sheet := xlFile.Sheets[0]
	if opts.SheetName != "" {
		s, ok := xlFile.Sheet[opts.SheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("工作表 %q 不存在: %s", opts.SheetName, filePath)
		}
		sheet = s
	}

	// 3. 转换为Gota DataFrame
	records := sheetRecords(sheet)
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %q 为空: %s", sheet.Name, filePath)
	}

	df, err := loadRecords(records, opts)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to load sheet %q: %w", sheet.Name, err)
	}

	df, err = applySchema(df, opts.Schema)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", filePath, err)
	}
	return df, nil
}

// sheetRecords 将xlsx.Sheet转换为二维字符串表
// 跳过完全空白的行，短行用空字符串补齐
func sheetRecords(sheet *xlsx.Sheet) [][]string {
	if len(sheet.Rows) == 0 {
		return nil
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	records := [][]string{headers}
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		rec := make([]string, len(headers))
		empty := true
		for i, cell := range row.Cells {
			if i >= len(headers) { // 确保不超出列数范围
				break
			}
			rec[i] = cell.String()
			if strings.TrimSpace(rec[i]) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, rec)
	}
	return records
}
