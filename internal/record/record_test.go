package record

import "testing"

func TestFileClass(t *testing.T) {
	tests := []struct {
		mime string
		want Class
	}{
		{"image/png", ClassImage},
		{"image/jpeg", ClassImage},
		{"video/webm", ClassVideo},
		{"audio/ogg", ClassAudio},
		{"application/pdf", ClassOther},
		{"application/octet-stream", ClassOther},
		{"", ClassOther},
	}
	for _, tt := range tests {
		f := &File{MimeType: tt.mime}
		if got := f.Class(); got != tt.want {
			t.Errorf("Class(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestParentAccessors(t *testing.T) {
	var records = []Record{
		&File{ID: "1", Name: "a", ParentID: "9"},
		&Folder{ID: "2", Name: "b"},
	}
	if records[0].Parent() != "9" {
		t.Errorf("file parent = %q, want 9", records[0].Parent())
	}
	if records[1].Parent() != "" {
		t.Errorf("folder parent = %q, want root", records[1].Parent())
	}
}
