package database

import (
	"bytes"
	"testing"
)

func TestBucketPath(t *testing.T) {
	tests := []struct {
		bucketByteSlices [][]byte
		expectedPath     []byte
	}{
		{
			bucketByteSlices: [][]byte{[]byte("hello")},
			expectedPath:     []byte("hello/"),
		},
		{
			bucketByteSlices: [][]byte{[]byte("hello"), []byte("world")},
			expectedPath:     []byte("hello/world/"),
		},
	}

	for _, test := range tests {
		bucket := MakeBucket(test.bucketByteSlices[0])
		for _, bucketBytes := range test.bucketByteSlices[1:] {
			bucket = bucket.Bucket(bucketBytes)
		}

		if !bytes.Equal(bucket.Path(), test.expectedPath) {
			t.Errorf("TestBucketPath: got wrong path. Want: %s, got: %s",
				test.expectedPath, bucket.Path())
		}
	}
}

func TestBucketKey(t *testing.T) {
	bucket := MakeBucket([]byte("headers")).Bucket([]byte("level0"))
	key := bucket.Key([]byte("abc"))

	if !bytes.Equal(key.Bytes(), []byte("headers/level0/abc")) {
		t.Errorf("unexpected key bytes %s", key.Bytes())
	}
	if !bytes.Equal(key.Suffix(), []byte("abc")) {
		t.Errorf("unexpected key suffix %s", key.Suffix())
	}
	if key.Bucket() != bucket {
		t.Errorf("key bucket is not the creating bucket")
	}
}
