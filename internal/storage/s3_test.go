package storage

import "testing"

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://quotes/2025/08/snapshot.yml", "quotes", "2025/08/snapshot.yml", false},
		{"s3://quotes/", "", "", true},
		{"s3://", "", "", true},
		{"/tmp/snapshot.yml", "", "", true},
	}
	for _, tt := range tests {
		bucket, key, err := ParseS3URI(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseS3URI(%q) err = %v", tt.in, err)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("ParseS3URI(%q) = %q, %q", tt.in, bucket, key)
		}
	}
}
