package formatter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/feat/internal/shared"
	th "github.com/desertthunder/feat/internal/testing"
)

func TestConvertToCSV(t *testing.T) {
	tt := []struct {
		name   string
		rows   []Row
		header []string
		want   string
	}{
		{
			name:   "header only",
			rows:   nil,
			header: []string{"date", "zip_code"},
			want:   "date,zip_code\r\n",
		},
		{
			name: "values follow header order",
			rows: []Row{
				{"zip_code": "37203", "date": "2021-01-04", "type": "eviction"},
				{"date": "2021-02-11", "zip_code": "37209", "type": "foreclosure"},
			},
			header: []string{"date", "zip_code", "type"},
			want:   "date,zip_code,type\r\n2021-01-04,37203,eviction\r\n2021-02-11,37209,foreclosure\r\n",
		},
		{
			name:   "missing and nil values are empty",
			rows:   []Row{{"a": "1", "b": nil}},
			header: []string{"a", "b", "c"},
			want:   "a,b,c\r\n1,,\r\n",
		},
		{
			name:   "non-string values",
			rows:   []Row{{"n": 3, "f": 1.5, "ok": true}},
			header: []string{"n", "f", "ok"},
			want:   "n,f,ok\r\n3,1.5,true\r\n",
		},
		{
			name:   "fields with separators are quoted",
			rows:   []Row{{"street_address_1": "12 Main St, Apt 4", "note": `say "hi"`}},
			header: []string{"street_address_1", "note"},
			want:   "street_address_1,note\r\n\"12 Main St, Apt 4\",\"say \"\"hi\"\"\"\r\n",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ConvertToCSV(tc.rows, tc.header)
			if err != nil {
				t.Fatalf("ConvertToCSV() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("ConvertToCSV() = %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("empty header", func(t *testing.T) {
		if _, err := ConvertToCSV([]Row{{"a": 1}}, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestConvertJSONToCSV(t *testing.T) {
	t.Run("explicit header", func(t *testing.T) {
		data := []byte(`[{"city":"Nashville","count":12},{"city":"Memphis","count":7}]`)
		got, err := ConvertJSONToCSV(data, []string{"city", "count"})
		if err != nil {
			t.Fatalf("ConvertJSONToCSV() error = %v", err)
		}
		want := "city,count\r\nNashville,12\r\nMemphis,7\r\n"
		if string(got) != want {
			t.Errorf("ConvertJSONToCSV() = %q, want %q", got, want)
		}
	})

	t.Run("large numbers keep their digits", func(t *testing.T) {
		got, err := ConvertJSONToCSV([]byte(`[{"geoid":47037019300}]`), []string{"geoid"})
		if err != nil {
			t.Fatalf("ConvertJSONToCSV() error = %v", err)
		}
		if string(got) != "geoid\r\n47037019300\r\n" {
			t.Errorf("ConvertJSONToCSV() = %q", got)
		}
	})

	t.Run("derived header", func(t *testing.T) {
		data := []byte(`[{"b":"2","a":"1"},{"c":"3"}]`)
		got, err := ConvertJSONToCSV(data, nil)
		if err != nil {
			t.Fatalf("ConvertJSONToCSV() error = %v", err)
		}
		want := "a,b,c\r\n1,2,\r\n,,3\r\n"
		if string(got) != want {
			t.Errorf("ConvertJSONToCSV() = %q, want %q", got, want)
		}
	})

	t.Run("nested values are JSON", func(t *testing.T) {
		got, err := ConvertJSONToCSV([]byte(`[{"tags":["a","b"]}]`), []string{"tags"})
		if err != nil {
			t.Fatalf("ConvertJSONToCSV() error = %v", err)
		}
		if string(got) != "tags\r\n\"[\"\"a\"\",\"\"b\"\"]\"\r\n" {
			t.Errorf("ConvertJSONToCSV() = %q", got)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := ConvertJSONToCSV([]byte(`{"not":"an array"}`), []string{"not"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")

	if err := WriteCSV(path, []byte("a\r\n")); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	th.AssertFileExists(t, path)
	if got := th.MustReadFile(t, path); got != "a\r\n" {
		t.Errorf("file content = %q", got)
	}
}
