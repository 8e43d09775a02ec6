// internal/modelstore/modelstore_test.go
package modelstore

import "testing"

func TestSplitURI(t *testing.T) {
	bucket, key, err := splitURI("s3://models/potentials/ani2x.onnx")
	if err != nil {
		t.Fatalf("splitURI failed: %v", err)
	}
	if bucket != "models" {
		t.Errorf("bucket = %q, expected models", bucket)
	}
	if key != "potentials/ani2x.onnx" {
		t.Errorf("key = %q", key)
	}

	for _, uri := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		if _, _, err := splitURI(uri); err == nil {
			t.Errorf("Expected error for %q", uri)
		}
	}
}
