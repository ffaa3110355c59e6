package locker

import (
	"context"
	"sync"

	"visa-locker/internal/models"
	"visa-locker/internal/portal"
)

type call struct {
	Action string
	Token  string
	Field  string
	Value  string
	Data   map[string]interface{}
	Pct    int
}

// fakeGateway records every call; func fields override the default success.
type fakeGateway struct {
	mu    sync.Mutex
	calls []call

	VerifyFunc          func(token, password string) (*models.ApplicantRecord, error)
	UpdatePersonalFunc  func(field, value string) error
	UpdateQuestionsFunc func(data map[string]interface{}) error
	UploadFilesFunc     func(field, inputName string, files []portal.File) (*portal.UploadResult, error)
	DeleteFileFunc      func(field, filename string) (*portal.DeleteResult, error)
	UpdateProgressFunc  func(pct int) error
	MarkCompleteFunc    func() error
	DependentTokenFunc  func(id string) (string, error)
}

func (f *fakeGateway) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeGateway) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeGateway) Actions() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, c.Action)
	}
	return out
}

func (f *fakeGateway) Verify(_ context.Context, token, password string) (*models.ApplicantRecord, error) {
	f.record(call{Action: "verify", Value: token})
	if f.VerifyFunc != nil {
		return f.VerifyFunc(token, password)
	}
	return &models.ApplicantRecord{Personal: map[string]interface{}{}, Questions: map[string]interface{}{}}, nil
}

func (f *fakeGateway) UpdatePersonal(_ context.Context, token, field, value string) error {
	f.record(call{Action: "update_personal", Token: token, Field: field, Value: value})
	if f.UpdatePersonalFunc != nil {
		return f.UpdatePersonalFunc(field, value)
	}
	return nil
}

func (f *fakeGateway) UpdateQuestions(_ context.Context, _ string, data map[string]interface{}) error {
	f.record(call{Action: "update_questions", Data: data})
	if f.UpdateQuestionsFunc != nil {
		return f.UpdateQuestionsFunc(data)
	}
	return nil
}

func (f *fakeGateway) UploadFiles(_ context.Context, _, field, inputName string, files []portal.File) (*portal.UploadResult, error) {
	f.record(call{Action: "upload_files", Field: field, Value: inputName})
	if f.UploadFilesFunc != nil {
		return f.UploadFilesFunc(field, inputName, files)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	return &portal.UploadResult{Filenames: names}, nil
}

func (f *fakeGateway) DeleteFile(_ context.Context, _, field, filename string) (*portal.DeleteResult, error) {
	f.record(call{Action: "delete_file", Field: field, Value: filename})
	if f.DeleteFileFunc != nil {
		return f.DeleteFileFunc(field, filename)
	}
	return &portal.DeleteResult{}, nil
}

func (f *fakeGateway) UpdateProgress(_ context.Context, _ string, pct int) error {
	f.record(call{Action: "update_progress", Pct: pct})
	if f.UpdateProgressFunc != nil {
		return f.UpdateProgressFunc(pct)
	}
	return nil
}

func (f *fakeGateway) MarkComplete(_ context.Context, _ string) error {
	f.record(call{Action: "mark_complete"})
	if f.MarkCompleteFunc != nil {
		return f.MarkCompleteFunc()
	}
	return nil
}

func (f *fakeGateway) DependentToken(_ context.Context, id string) (string, error) {
	f.record(call{Action: "get_dependent_token", Value: id})
	if f.DependentTokenFunc != nil {
		return f.DependentTokenFunc(id)
	}
	return "dep-" + id, nil
}
