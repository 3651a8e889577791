// Package dataset は学習用データの読み込みと生成を行います。
//
// CSVローダーは "label" 列を1つだけ持つ数値表を読み込み、生成器はコイン投げ
// (ベルヌーイ試行)と2次元の一様ブロブ点群をシード付きで作成します。
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/core/parallel"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
)

// LabelColumn はラベル列のヘッダー名です。
const LabelColumn = "label"

// parseThreshold を超える行数の場合は行の解析を並列に行います。
const parseThreshold = 1000

// Table はCSVから読み込んだデータセットです。
// Names は特徴量名で、ラベル列は含みません。Data の各 Features は Names と同じ順序です。
type Table struct {
	Names []string
	Data  []model.Datum
}

// Matrix は特徴量を行列、ラベルを列ベクトルとして返します。
func (t *Table) Matrix() (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(len(t.Data), len(t.Names), nil)
	y := mat.NewVecDense(len(t.Data), nil)
	parallel.ParallelizeWithThreshold(len(t.Data), parseThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			X.SetRow(i, t.Data[i].Features)
			y.SetVec(i, float64(t.Data[i].Label))
		}
	})
	return X, y
}

// LoadCSV はヘッダー行付きのCSVを読み込みます。
// ヘッダーにはちょうど1つの "label" 列が必要です。
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.LoadCSV: missing header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "dataset.LoadCSV: read header")
	}
	return readRows(reader, header)
}

// LoadFile は LoadCSV をファイルに対して実行します。
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.LoadFile: open %s", path)
	}
	defer f.Close()

	table, err := LoadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.LoadFile: %s", path)
	}
	log.GetLogger().Debug("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, path,
		log.SamplesKey, len(table.Data),
		log.FeaturesKey, len(table.Names),
	)
	return table, nil
}

// LoadSplit はヘッダーとデータが別ファイルに分かれたデータセットを読み込みます。
// headerPath の1行目が列名、dataPath はヘッダー無しの数値行です
// (例: spambase.header と spambase.csv)。
func LoadSplit(headerPath, dataPath string) (*Table, error) {
	hf, err := os.Open(headerPath)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.LoadSplit: open %s", headerPath)
	}
	defer hf.Close()

	hr := csv.NewReader(hf)
	hr.TrimLeadingSpace = true
	header, err := hr.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(errors.ErrEmptyData, "dataset.LoadSplit: %s has no header line", headerPath)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.LoadSplit: read %s", headerPath)
	}

	df, err := os.Open(dataPath)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.LoadSplit: open %s", dataPath)
	}
	defer df.Close()

	dr := csv.NewReader(df)
	dr.TrimLeadingSpace = true
	table, err := readRows(dr, header)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.LoadSplit: %s", dataPath)
	}
	log.GetLogger().Debug("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, dataPath,
		log.SamplesKey, len(table.Data),
		log.FeaturesKey, len(table.Names),
	)
	return table, nil
}

func readRows(reader *csv.Reader, header []string) (*Table, error) {
	labelIdx := -1
	names := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == LabelColumn {
			if labelIdx >= 0 {
				return nil, errors.NewValidationError("header", "duplicate label column", strings.Join(header, ","))
			}
			labelIdx = i
			continue
		}
		names = append(names, h)
	}
	if labelIdx < 0 {
		return nil, errors.NewValidationError("header", "no label column", strings.Join(header, ","))
	}

	// 列数の検証は encoding/csv に任せる (FieldsPerRecord = len(header))
	reader.FieldsPerRecord = len(header)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read rows")
	}

	data := make([]model.Datum, len(records))
	parse := func(start, end int) error {
		for i := start; i < end; i++ {
			d, err := parseRecord(records[i], labelIdx, len(names))
			if err != nil {
				// 行番号はヘッダーを1行目とした1始まり
				return errors.Wrapf(err, "row %d", i+2)
			}
			data[i] = d
		}
		return nil
	}
	if len(records) <= parseThreshold {
		err = parse(0, len(records))
	} else {
		err = parallel.Run(len(records), parse)
	}
	if err != nil {
		return nil, err
	}
	return &Table{Names: names, Data: data}, nil
}

func parseRecord(record []string, labelIdx, nFeatures int) (model.Datum, error) {
	features := make([]float64, 0, nFeatures)
	var label int
	for col, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return model.Datum{}, errors.NewValueError("parse", "column "+strconv.Itoa(col+1)+": "+err.Error())
		}
		if col == labelIdx {
			if v != float64(int(v)) {
				return model.Datum{}, errors.NewValueError("parse", "label must be an integer, got "+field)
			}
			label = int(v)
			continue
		}
		features = append(features, v)
	}
	return model.Datum{Features: features, Label: label}, nil
}
