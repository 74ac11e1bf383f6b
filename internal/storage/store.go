// Package storage はS3互換オブジェクトストアへのアーティファクト保存を提供する。
//
// アーティファクトはフラットな名前空間（単一バケット）にキー指定で保存され、
// 公開URLで参照される。バージョニングやTTLはなく、既存アーティファクトの
// 削除・更新は行わない。
package storage

import (
	"bytes"
	"context"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hitoshi/sportboxd/internal/model"
)

// S3Config はS3互換ストレージの接続設定。
type S3Config struct {
	Endpoint      string // host:port（例: "s3.us-east-1.amazonaws.com"）
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string // 公開URLのベース（例: "https://yeon.s3.us-east-1.amazonaws.com"）
}

// S3Store はMinIO/S3互換ストレージに対するArtifactStore実装。
// プロセスごとに1回構築し、リクエスト間で共有する（クライアントは並行安全）。
type S3Store struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store はS3Storeを生成する。
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Exists はキーの存在をStatObject（HEAD相当）で確認する。本体はダウンロードしない。
// キー不存在はfalseを返し、それ以外の失敗はStoreReadErrorとして返す。
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, &model.StoreReadError{Key: key, Err: err}
	}
	return true, nil
}

// Upload はPNGバッファをキーの下に保存する。同一キーへの上書きはストレージ層で
// 冪等であり、決定的なレンダラーと組み合わせて同時生成競合を無害化する。
func (s *S3Store) Upload(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return &model.StoreWriteError{Key: key, Err: err}
	}
	return nil
}

// PublicURL はキーに対する公開URLを予測構築する。
// アップロードの完了を読み返して確認することはしない（URLは予測値）。
func (s *S3Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}
