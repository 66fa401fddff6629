package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeSender records calls and fails on demand.
type fakeSender struct {
	photoErr error
	docErr   error

	photos []string
	docs   []string
	msgs   []string
}

func (f *fakeSender) SendPhoto(ctx context.Context, path, caption string) error {
	f.photos = append(f.photos, caption)
	return f.photoErr
}

func (f *fakeSender) SendDocument(ctx context.Context, path, caption string) error {
	f.docs = append(f.docs, caption)
	return f.docErr
}

func (f *fakeSender) SendMessage(ctx context.Context, text string) error {
	f.msgs = append(f.msgs, text)
	return nil
}

func TestSendCapture(t *testing.T) {
	tests := []struct {
		name      string
		photoErr  error
		docErr    error
		wantDocs  int
		wantErr   bool
		errSubstr []string
	}{
		{
			name:     "photo succeeds",
			wantDocs: 0,
		},
		{
			name:     "photo fails, document fallback succeeds",
			photoErr: errors.New("PHOTO_INVALID_DIMENSIONS"),
			wantDocs: 1,
		},
		{
			name:      "photo and document both fail",
			photoErr:  errors.New("PHOTO_INVALID_DIMENSIONS"),
			docErr:    errors.New("request entity too large"),
			wantDocs:  1,
			wantErr:   true,
			errSubstr: []string{"PHOTO_INVALID_DIMENSIONS", "request entity too large"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeSender{photoErr: tc.photoErr, docErr: tc.docErr}
			n := New(fake)

			err := n.SendCapture(context.Background(), "/tmp/a.png", "NSE:NIFTY 15")

			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(fake.photos) != 1 {
				t.Errorf("photo attempts = %d, want 1", len(fake.photos))
			}
			if len(fake.docs) != tc.wantDocs {
				t.Errorf("document attempts = %d, want %d", len(fake.docs), tc.wantDocs)
			}
			for _, s := range tc.errSubstr {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error %q does not mention %q", err, s)
				}
			}
		})
	}
}

func TestSendCaptureWrapsDocumentError(t *testing.T) {
	docErr := errors.New("chat not found")
	fake := &fakeSender{photoErr: errors.New("boom"), docErr: docErr}

	err := New(fake).SendCapture(context.Background(), "/tmp/a.png", "caption")
	if !errors.Is(err, docErr) {
		t.Fatalf("error %v does not wrap the document failure", err)
	}
}

func TestSendReport(t *testing.T) {
	fake := &fakeSender{}
	if err := New(fake).SendReport(context.Background(), "report body"); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if len(fake.msgs) != 1 || fake.msgs[0] != "report body" {
		t.Errorf("messages = %v", fake.msgs)
	}
}
