package pdfextract

import "testing"

func TestExtractText(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "empty input", data: nil},
		{name: "not a pdf", data: []byte("plain words, no xref table"), wantErr: true},
		{name: "truncated header", data: []byte("%PDF-1.4\n"), wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractText(tc.data)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ExtractText() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != "" {
				t.Fatalf("ExtractText() = %q, want empty", got)
			}
		})
	}
}
