package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const baseURL = "http://localhost:8080/api/v1"

func main() {
	fmt.Println("Проверяем health endpoint...")
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		fmt.Printf("Ошибка запроса health: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Ошибка чтения ответа: %v\n", err)
		return
	}

	fmt.Printf("Health (статус %d):\n%s\n\n", resp.StatusCode, string(body))

	if len(os.Args) > 1 {
		gpxPath := os.Args[1]
		fmt.Printf("Загружаем %s...\n", gpxPath)

		if err := testUpload(gpxPath); err != nil {
			fmt.Printf("Ошибка загрузки: %v\n", err)
		}
	} else {
		fmt.Println("Передайте .gpx файл для загрузки: go run test_client.go track.gpx")
	}
}

func testUpload(gpxPath string) error {
	file, err := os.Open(gpxPath)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("gpx", filepath.Base(gpxPath))
	if err != nil {
		return fmt.Errorf("ошибка создания form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("ошибка копирования файла: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/routes", &buf)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 60 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Загрузка завершена за %v (статус %d):\n%s\n", time.Since(start), resp.StatusCode, string(body))
	return nil
}
