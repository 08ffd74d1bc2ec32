package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/otpwatch/mail-otp-infra/internal/mail"
)

type fakeReader struct {
	byFolder map[mail.Folder][]mail.Message
	errs     map[mail.Folder]error
	calls    []mail.Folder
	limits   []int
}

func (f *fakeReader) List(ctx context.Context, folder mail.Folder, limit int) ([]mail.Message, error) {
	f.calls = append(f.calls, folder)
	f.limits = append(f.limits, limit)
	if err := f.errs[folder]; err != nil {
		return nil, err
	}
	return f.byFolder[folder], nil
}

func codeMessage(code string) mail.Message {
	return mail.Message{Body: "Your verification code: " + code}
}

func TestScanOnceFolderOrder(t *testing.T) {
	reader := &fakeReader{}
	scanner := NewScanner(reader, 0)

	result, err := scanner.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if result.Found {
		t.Fatal("expected no code in empty folders")
	}

	want := []mail.Folder{mail.FolderInbox, mail.FolderDeletedItems, mail.FolderJunk}
	if len(reader.calls) != len(want) {
		t.Fatalf("folders checked = %v, want %v", reader.calls, want)
	}
	for i, folder := range want {
		if reader.calls[i] != folder {
			t.Errorf("call %d = %s, want %s", i, reader.calls[i], folder)
		}
	}
	for _, limit := range reader.limits {
		if limit != DefaultFolderLimit {
			t.Errorf("limit = %d, want %d", limit, DefaultFolderLimit)
		}
	}
}

func TestScanOnceShortCircuitsOnFind(t *testing.T) {
	reader := &fakeReader{
		byFolder: map[mail.Folder][]mail.Message{
			mail.FolderInbox: {codeMessage("482913")},
		},
	}

	result, err := NewScanner(reader, 0).ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if !result.Found || result.Code != "482913" {
		t.Fatalf("result = %+v, want code 482913", result)
	}
	if len(reader.calls) != 1 {
		t.Errorf("folders checked = %d, want 1 (inbox hit short-circuits)", len(reader.calls))
	}
}

func TestScanOnceFindsCodeInLaterFolder(t *testing.T) {
	reader := &fakeReader{
		byFolder: map[mail.Folder][]mail.Message{
			mail.FolderJunk: {codeMessage("907245")},
		},
	}

	result, err := NewScanner(reader, 0).ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if !result.Found || result.Code != "907245" {
		t.Fatalf("result = %+v, want code 907245", result)
	}
	if len(reader.calls) != 3 {
		t.Errorf("folders checked = %d, want 3", len(reader.calls))
	}
}

func TestScanOnceFatalErrorStopsPass(t *testing.T) {
	tests := []struct {
		name string
		kind mail.FetchKind
	}{
		{"unauthorized", mail.FetchUnauthorized},
		{"forbidden", mail.FetchForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{
				errs: map[mail.Folder]error{
					mail.FolderInbox: &mail.FetchError{Kind: tt.kind, Folder: mail.FolderInbox, Status: 401},
				},
				byFolder: map[mail.Folder][]mail.Message{
					mail.FolderJunk: {codeMessage("111222")},
				},
			}

			_, err := NewScanner(reader, 0).ScanOnce(context.Background())
			if err == nil {
				t.Fatal("expected fatal error to propagate")
			}
			var fetchErr *mail.FetchError
			if !errors.As(err, &fetchErr) || fetchErr.Kind != tt.kind {
				t.Fatalf("error = %v, want FetchError kind %s", err, tt.kind)
			}
			if len(reader.calls) != 1 {
				t.Errorf("folders checked = %d, want 1 (no point scanning with a dead token)", len(reader.calls))
			}
		})
	}
}

func TestScanOnceSoftErrorContinues(t *testing.T) {
	reader := &fakeReader{
		errs: map[mail.Folder]error{
			mail.FolderInbox: &mail.FetchError{Kind: mail.FetchNetwork, Folder: mail.FolderInbox, Err: errors.New("connection reset")},
		},
		byFolder: map[mail.Folder][]mail.Message{
			mail.FolderDeletedItems: {codeMessage("335577")},
		},
	}

	result, err := NewScanner(reader, 0).ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce() error = %v, soft failures must be absorbed", err)
	}
	if !result.Found || result.Code != "335577" {
		t.Fatalf("result = %+v, want code 335577", result)
	}
}

func TestScanOncePreviewFallback(t *testing.T) {
	reader := &fakeReader{
		byFolder: map[mail.Folder][]mail.Message{
			mail.FolderInbox: {{Preview: "Your verification code: 664422"}},
		},
	}

	result, err := NewScanner(reader, 0).ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if !result.Found || result.Code != "664422" {
		t.Fatalf("result = %+v, want code from preview", result)
	}
}
