package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/pkg/dsl"
)

// Options 控制交互日志的解析方式。
type Options struct {
	// Delimiter 是列分隔符，默认 ','
	Delimiter rune
	// HasHeader 为 true 时第一行是列名，过滤表达式可通过 fields.<列名> 访问
	HasHeader bool

	// UserColumn / ItemColumn 是用户、物品所在列（从 0 开始）
	UserColumn int
	ItemColumn int
	// ValueColumn < 0 时所有事件的 Value 为 1（隐式正反馈）
	ValueColumn int

	// UserFeatureColumn / ItemFeatureColumn / ContextColumn 是向量列，< 0 表示不读取。
	// 单元格内分量以 VectorSeparator 分隔（默认 ';'），例如 "0.2;1;0"；空单元格表示该事件不带向量
	UserFeatureColumn int
	ItemFeatureColumn int
	ContextColumn     int
	VectorSeparator   rune

	// Filter 在分配下标之前执行，被过滤掉的行不会占用下标
	Filter *dsl.EventFilter

	// Users / Items 允许多个文件共享同一套下标；为 nil 时内部新建
	Users *Indexer
	Items *Indexer
}

// DefaultOptions 返回 "user,item[,value]" 格式的默认配置。
func DefaultOptions() Options {
	return Options{
		Delimiter:   ',',
		UserColumn:  0,
		ItemColumn:  1,
		ValueColumn: -1,

		UserFeatureColumn: -1,
		ItemFeatureColumn: -1,
		ContextColumn:     -1,
		VectorSeparator:   ';',
	}
}

// Load 逐行解析交互日志，按输入顺序返回事件。
func Load(r io.Reader, opts Options) ([]core.Event, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.UserColumn < 0 || opts.ItemColumn < 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"dataset: user/item column must be non-negative")
	}
	if opts.VectorSeparator == 0 {
		opts.VectorSeparator = ';'
	}
	if opts.VectorSeparator == opts.Delimiter {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dataset: vector separator %q equals column delimiter", opts.VectorSeparator))
	}
	if opts.Users == nil {
		opts.Users = NewIndexer()
	}
	if opts.Items == nil {
		opts.Items = NewIndexer()
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var header []string
	var events []core.Event
	line := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dataset: read line %d", line), err)
		}
		if opts.HasHeader && header == nil {
			header = make([]string, len(record))
			copy(header, record)
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		e, keep, err := parseRecord(record, header, opts)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dataset: line %d", line), err)
		}
		if keep {
			events = append(events, e)
		}
	}
	return events, nil
}

// LoadFile 打开文件并调用 Load。
func LoadFile(path string, opts Options) ([]core.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f, opts)
}

func parseRecord(record, header []string, opts Options) (core.Event, bool, error) {
	user, err := column(record, opts.UserColumn)
	if err != nil {
		return core.Event{}, false, err
	}
	item, err := column(record, opts.ItemColumn)
	if err != nil {
		return core.Event{}, false, err
	}

	value := 1.0
	if opts.ValueColumn >= 0 {
		raw, err := column(record, opts.ValueColumn)
		if err != nil {
			return core.Event{}, false, err
		}
		value, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.Event{}, false, fmt.Errorf("parse value %q: %w", raw, err)
		}
	}

	if opts.Filter != nil {
		ok, err := opts.Filter.Match(user, item, value, fields(record, header))
		if err != nil {
			return core.Event{}, false, err
		}
		if !ok {
			return core.Event{}, false, nil
		}
	}

	userFeature, err := vectorColumn(record, opts.UserFeatureColumn, opts.VectorSeparator)
	if err != nil {
		return core.Event{}, false, err
	}
	itemFeature, err := vectorColumn(record, opts.ItemFeatureColumn, opts.VectorSeparator)
	if err != nil {
		return core.Event{}, false, err
	}
	context, err := vectorColumn(record, opts.ContextColumn, opts.VectorSeparator)
	if err != nil {
		return core.Event{}, false, err
	}

	e := core.NewEvent(opts.Users.Index(user), opts.Items.Index(item), value)
	if userFeature != nil || itemFeature != nil {
		e = e.WithFeatures(userFeature, itemFeature)
	}
	if context != nil {
		e = e.WithContext(context)
	}
	return e, true, nil
}

// vectorColumn 解析第 i 列的向量；i < 0 或单元格为空时返回 nil。
func vectorColumn(record []string, i int, sep rune) ([]float64, error) {
	if i < 0 {
		return nil, nil
	}
	if i >= len(record) {
		return nil, fmt.Errorf("missing vector column %d (got %d)", i, len(record))
	}
	raw := strings.TrimSpace(record[i])
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, string(sep))
	vec := make([]float64, len(parts))
	for k, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse vector column %d component %d %q: %w", i, k, p, err)
		}
		vec[k] = v
	}
	return vec, nil
}

func column(record []string, i int) (string, error) {
	if i >= len(record) {
		return "", fmt.Errorf("missing column %d (got %d)", i, len(record))
	}
	v := strings.TrimSpace(record[i])
	if v == "" {
		return "", fmt.Errorf("empty column %d", i)
	}
	return v, nil
}

// fields 按列名（无表头时为 c0, c1, ...）索引整行。
func fields(record, header []string) map[string]string {
	m := make(map[string]string, len(record))
	for i, v := range record {
		name := "c" + strconv.Itoa(i)
		if i < len(header) {
			name = header[i]
		}
		m[name] = v
	}
	return m
}
