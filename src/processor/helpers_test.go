package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/require"

	"AirQualityCleaner/src/datasource/file"
)

const rawHeader = "month,day,year,hour,minute,ozone,solar_R,wind,temp,sensor_id"

// loadRaw 将测试数据写入临时csv并通过正式的读取流程加载
func loadRaw(t *testing.T, rows ...string) dataframe.DataFrame {
	t.Helper()
	path := filepath.Join(t.TempDir(), "air_quality.csv")
	body := rawHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	df, err := file.ReadCSVToDataFrame(path, file.ReadOptions{})
	require.NoError(t, err)
	return df
}

// applyStages 依次执行给定步骤
func applyStages(t *testing.T, df dataframe.DataFrame, stages ...Stage) (dataframe.DataFrame, *Report) {
	t.Helper()
	rep := newReport(df.Nrow())
	for _, s := range stages {
		var err error
		df, err = s.Apply(df, rep)
		require.NoError(t, err, s.Name())
	}
	return df, rep
}

// column 以字符串形式取出一列，NA 记为 "NA"
func column(df dataframe.DataFrame, name string) []string {
	s := df.Col(name)
	out := make([]string, s.Len())
	for i := range out {
		el := s.Elem(i)
		if el.IsNA() {
			out[i] = "NA"
			continue
		}
		out[i] = el.String()
	}
	return out
}
