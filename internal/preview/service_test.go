package preview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/sportboxd/internal/model"
)

// countingStore は呼び出し回数を記録するテスト用ArtifactStore。
type countingStore struct {
	existing  map[string]bool
	uploadErr error
	existsErr error

	existsCalls int
	uploadCalls int
	uploaded    map[string][]byte
}

func newCountingStore(existing ...string) *countingStore {
	s := &countingStore{
		existing: map[string]bool{},
		uploaded: map[string][]byte{},
	}
	for _, key := range existing {
		s.existing[key] = true
	}
	return s
}

func (s *countingStore) Exists(ctx context.Context, key string) (bool, error) {
	s.existsCalls++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.existing[key], nil
}

func (s *countingStore) Upload(ctx context.Context, key string, data []byte) error {
	s.uploadCalls++
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.existing[key] = true
	s.uploaded[key] = data
	return nil
}

func (s *countingStore) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

// countingSnapshotter は呼び出し回数を記録するテスト用Snapshotter。
type countingSnapshotter struct {
	err   error
	calls int

	gotDoc string
}

func (c *countingSnapshotter) Capture(ctx context.Context, doc string) ([]byte, error) {
	c.calls++
	c.gotDoc = doc
	if c.err != nil {
		return nil, c.err
	}
	return []byte("png-bytes"), nil
}

func newTestService(store ArtifactStore, snap Snapshotter) *Service {
	return NewService(newTestRenderer(), snap, store, nil, nil, nil, nil)
}

// TestCreatePreview_CacheMiss は初回リクエストで生成とアップロードが行われることをテストする。
func TestCreatePreview_CacheMiss(t *testing.T) {
	store := newCountingStore()
	snap := &countingSnapshotter{}
	svc := newTestService(store, snap)

	url, err := svc.CreatePreview(context.Background(), versusRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "https://cdn.example/preview_123.png" {
		t.Errorf("url = %q", url)
	}
	if snap.calls != 1 {
		t.Errorf("capture calls = %d, want 1", snap.calls)
	}
	if store.uploadCalls != 1 {
		t.Errorf("upload calls = %d, want 1", store.uploadCalls)
	}
	if string(store.uploaded["preview_123.png"]) != "png-bytes" {
		t.Error("captured bytes should be uploaded under the artifact key")
	}
}

// TestCreatePreview_CacheHit はキャッシュヒット時にプロデューサーが呼ばれないことをテストする。
func TestCreatePreview_CacheHit(t *testing.T) {
	store := newCountingStore("preview_123.png")
	snap := &countingSnapshotter{}
	svc := newTestService(store, snap)

	url, err := svc.CreatePreview(context.Background(), versusRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "https://cdn.example/preview_123.png" {
		t.Errorf("url = %q", url)
	}
	if snap.calls != 0 {
		t.Errorf("capture calls = %d, want 0 on hit", snap.calls)
	}
	if store.uploadCalls != 0 {
		t.Errorf("upload calls = %d, want 0 on hit", store.uploadCalls)
	}
}

// TestCreatePreview_Idempotence は同一キーへの連続リクエストでアップロードが1回だけ
// 行われることをテストする。
func TestCreatePreview_Idempotence(t *testing.T) {
	store := newCountingStore()
	snap := &countingSnapshotter{}
	svc := newTestService(store, snap)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreatePreview(context.Background(), versusRequest()); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
	}

	if store.uploadCalls != 1 {
		t.Errorf("upload calls = %d, want exactly 1", store.uploadCalls)
	}
	if snap.calls != 1 {
		t.Errorf("capture calls = %d, want exactly 1", snap.calls)
	}
}

// TestCreatePreview_UploadErrorPropagates はアップロード失敗が握りつぶされないことをテストする。
func TestCreatePreview_UploadErrorPropagates(t *testing.T) {
	store := newCountingStore()
	store.uploadErr = &model.StoreWriteError{Key: "preview_123.png", Err: errors.New("denied")}
	svc := newTestService(store, &countingSnapshotter{})

	_, err := svc.CreatePreview(context.Background(), versusRequest())

	var writeErr *model.StoreWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}
}

// TestCreatePreview_ExistsErrorPropagates は存在確認の失敗が伝播することをテストする。
func TestCreatePreview_ExistsErrorPropagates(t *testing.T) {
	store := newCountingStore()
	store.existsErr = &model.StoreReadError{Key: "preview_123.png", Err: errors.New("unreachable")}
	snap := &countingSnapshotter{}
	svc := newTestService(store, snap)

	_, err := svc.CreatePreview(context.Background(), versusRequest())

	var readErr *model.StoreReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected StoreReadError, got %v", err)
	}
	if snap.calls != 0 {
		t.Error("capture should not run when the existence check fails")
	}
}

// TestCreatePreview_CaptureErrorPropagates はキャプチャ失敗時にアップロードされないことをテストする。
func TestCreatePreview_CaptureErrorPropagates(t *testing.T) {
	store := newCountingStore()
	snap := &countingSnapshotter{err: &model.RenderTimeoutError{}}
	svc := newTestService(store, snap)

	_, err := svc.CreatePreview(context.Background(), versusRequest())

	var timeoutErr *model.RenderTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected RenderTimeoutError, got %v", err)
	}
	if store.uploadCalls != 0 {
		t.Error("nothing should be uploaded when capture fails")
	}
}

// TestCreatePreview_VersusScenario は評価なしのエンドツーエンドシナリオをテストする。
func TestCreatePreview_VersusScenario(t *testing.T) {
	store := newCountingStore()
	snap := &countingSnapshotter{}
	svc := newTestService(store, snap)

	req := &model.PreviewRequest{
		MatchID:  "123",
		HomeTeam: "Flamengo",
		AwayTeam: "Palmeiras",
		League:   "BSA",
	}

	url, err := svc.CreatePreview(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(url, "/preview_123.png") {
		t.Errorf("url = %q, want suffix /preview_123.png", url)
	}
	if !strings.Contains(snap.gotDoc, "/BSA/Flamengo.png") || !strings.Contains(snap.gotDoc, "/BSA/Palmeiras.png") {
		t.Error("rendered document should reference both crest URLs")
	}
	if strings.Contains(snap.gotDoc, `class="card"`) {
		t.Error("request without rating fields should use the versus layout")
	}
}

// TestCreatePreview_RatingScenario は評価付きのエンドツーエンドシナリオをテストする。
func TestCreatePreview_RatingScenario(t *testing.T) {
	store := newCountingStore()
	snap := &countingSnapshotter{}
	svc := newTestService(store, snap)

	req := &model.PreviewRequest{
		MatchID:       "123",
		HomeTeam:      "Flamengo",
		AwayTeam:      "Palmeiras",
		League:        "BSA",
		RatingID:      "r1",
		RatingTitle:   "Ótimo jogo",
		RatingAuthor:  "ana",
		RatingComment: "Gol incrível no fim",
	}

	url, err := svc.CreatePreview(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(url, "/preview_123_rating_r1.png") {
		t.Errorf("url = %q, want suffix /preview_123_rating_r1.png", url)
	}
	if !strings.Contains(snap.gotDoc, `class="card"`) {
		t.Error("request with rating fields should use the rating layout")
	}
	if _, ok := store.uploaded["preview_123_rating_r1.png"]; !ok {
		t.Error("artifact should be stored under the rating key")
	}
}

// upperSanitizer はサニタイズ適用の確認用に大文字化するテスト実装。
type upperSanitizer struct{}

func (upperSanitizer) SanitizeText(raw string) string {
	return strings.ToUpper(raw)
}

// TestCreatePreview_SanitizerApplied はレビュー本文にサニタイザーが適用されることをテストする。
func TestCreatePreview_SanitizerApplied(t *testing.T) {
	store := newCountingStore()
	snap := &countingSnapshotter{}
	svc := NewService(newTestRenderer(), snap, store, nil, upperSanitizer{}, nil, nil)

	req := &model.PreviewRequest{
		MatchID:       "123",
		HomeTeam:      "Flamengo",
		AwayTeam:      "Palmeiras",
		RatingID:      "r1",
		RatingTitle:   "jogão",
		RatingAuthor:  "ana",
		RatingComment: "golaço",
	}

	if _, err := svc.CreatePreview(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(snap.gotDoc, "JOGÃO") {
		t.Error("sanitizer should run over the rating title before rendering")
	}
}
