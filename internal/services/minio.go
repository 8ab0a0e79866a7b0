package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"

	"velora_back_end/internal/database"

	"github.com/minio/minio-go/v7"
)

// UploadFile envoie un fichier dans un bucket MinIO et retourne son URL publique
func UploadFile(bucket string, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = database.MinIO.PutObject(context.Background(), bucket, file.Filename, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://%s/%s/%s", os.Getenv("MINIO_ENDPOINT"), bucket, file.Filename)
	return url, nil
}
