package dataset

import (
	"slices"
	"strings"
	"testing"

	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/pkg/dsl"
)

func TestIndexer(t *testing.T) {
	x := NewIndexer()
	if got := x.Index("alice"); got != 0 {
		t.Fatalf("Index(alice) = %d, want 0", got)
	}
	if got := x.Index("bob"); got != 1 {
		t.Fatalf("Index(bob) = %d, want 1", got)
	}
	if got := x.Index("alice"); got != 0 {
		t.Fatalf("Index(alice) again = %d, want 0", got)
	}
	if _, ok := x.Lookup("carol"); ok {
		t.Error("Lookup(carol) should not allocate")
	}
	if id, ok := x.ID(1); !ok || id != "bob" {
		t.Errorf("ID(1) = %q, %v", id, ok)
	}
	if x.Len() != 2 {
		t.Errorf("Len() = %d, want 2", x.Len())
	}
}

func TestLoad(t *testing.T) {
	input := "user,item,rating\n" +
		"u1,i1,5\n" +
		"u2,i2,2\n" +
		"u1,i3,4\n" +
		"\n" +
		"u3,i1,1\n"

	filter, err := dsl.NewEventFilter("value >= 4.0")
	if err != nil {
		t.Fatalf("NewEventFilter() error = %v", err)
	}

	tests := []struct {
		name   string
		filter *dsl.EventFilter
		want   []core.Event
	}{
		{
			name: "no filter",
			want: []core.Event{
				core.NewEvent(0, 0, 5), core.NewEvent(1, 1, 2),
				core.NewEvent(0, 2, 4), core.NewEvent(2, 0, 1),
			},
		},
		{
			// 被过滤的行不占用下标
			name:   "filter before indexing",
			filter: filter,
			want:   []core.Event{core.NewEvent(0, 0, 5), core.NewEvent(0, 1, 4)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.HasHeader = true
			opts.ValueColumn = 2
			opts.Filter = tt.filter
			got, err := Load(strings.NewReader(input), opts)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Load() returned %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.User.Index != w.User.Index || g.Item.Index != w.Item.Index || g.Value != w.Value {
					t.Errorf("event %d = (%d,%d,%v), want (%d,%d,%v)", i,
						g.User.Index, g.Item.Index, g.Value, w.User.Index, w.Item.Index, w.Value)
				}
			}
		})
	}
}

func TestLoad_HeaderFieldsAndTSV(t *testing.T) {
	input := "uid\tiid\tsource\nu1\ti1\tweb\nu2\ti2\tapp\n"
	filter, err := dsl.NewEventFilter(`fields.source == "app"`)
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Delimiter = '\t'
	opts.HasHeader = true
	opts.Filter = filter
	got, err := Load(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Value != 1 || got[0].User.Index != 0 {
		t.Fatalf("Load() = %+v", got)
	}
}

func TestLoad_Vectors(t *testing.T) {
	input := "user,item,uf,if,ctx\n" +
		"u1,i1,1;0,0.5;0.5;1,0;1\n" +
		"u2,i1,,,\n" +
		"u1,i2,,2;0,\n"

	opts := DefaultOptions()
	opts.HasHeader = true
	opts.UserFeatureColumn = 2
	opts.ItemFeatureColumn = 3
	opts.ContextColumn = 4
	got, err := Load(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Load() returned %d events, want 3", len(got))
	}

	tests := []struct {
		name string
		got  []float64
		want []float64
	}{
		{name: "user feature", got: got[0].User.Feature, want: []float64{1, 0}},
		{name: "item feature", got: got[0].Item.Feature, want: []float64{0.5, 0.5, 1}},
		{name: "context", got: got[0].Context, want: []float64{0, 1}},
		// 空单元格不带向量，特征感知推荐器保留原值
		{name: "empty user feature", got: got[1].User.Feature, want: nil},
		{name: "empty item feature", got: got[1].Item.Feature, want: nil},
		{name: "empty context", got: got[1].Context, want: nil},
		{name: "item feature only", got: got[2].Item.Feature, want: []float64{2, 0}},
		{name: "no user feature with item feature", got: got[2].User.Feature, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !slices.Equal(tt.got, tt.want) || (tt.want == nil) != (tt.got == nil) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	// 默认不读取向量列
	plain, err := Load(strings.NewReader(input), Options{Delimiter: ',', HasHeader: true, ItemColumn: 1,
		ValueColumn: -1, UserFeatureColumn: -1, ItemFeatureColumn: -1, ContextColumn: -1})
	if err != nil {
		t.Fatal(err)
	}
	if plain[0].User.Feature != nil || plain[0].Item.Feature != nil || plain[0].Context != nil {
		t.Errorf("vectors loaded without vector columns: %+v", plain[0])
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		value  int
		vector int
		sep    rune
	}{
		{name: "missing item column", input: "u1\n", value: -1, vector: -1},
		{name: "bad value", input: "u1,i1,abc\n", value: 2, vector: -1},
		{name: "empty user", input: ",i1\n", value: -1, vector: -1},
		{name: "bad vector component", input: "u1,i1,1;x\n", value: -1, vector: 2},
		{name: "missing vector column", input: "u1,i1\n", value: -1, vector: 2},
		{name: "separator equals delimiter", input: "u1,i1,1\n", value: -1, vector: 2, sep: ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ValueColumn = tt.value
			opts.ItemFeatureColumn = tt.vector
			if tt.sep != 0 {
				opts.VectorSeparator = tt.sep
			}
			_, err := Load(strings.NewReader(tt.input), opts)
			if !core.IsInvalidInput(err) {
				t.Errorf("Load() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	events := make([]core.Event, 10)
	for i := range events {
		events[i] = core.NewEvent(i, i, 1)
	}

	train, test, stream, err := Split(events, DefaultTrainRatio, DefaultTestRatio)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(train) != 3 || len(test) != 2 || len(stream) != 5 {
		t.Fatalf("Split() sizes = %d/%d/%d, want 3/2/5", len(train), len(test), len(stream))
	}
	if train[0].User.Index != 0 || test[0].User.Index != 3 || stream[0].User.Index != 5 {
		t.Error("Split() must preserve input order")
	}

	// 对 train 的 append 不能覆盖 test
	_ = append(train, core.NewEvent(99, 99, 1))
	if test[0].User.Index != 3 {
		t.Error("append to train leaked into test")
	}

	if _, _, _, err := Split(events, 0.8, 0.5); !core.IsInvalidInput(err) {
		t.Errorf("Split() with ratios > 1 error = %v, want INVALID_INPUT", err)
	}
}
