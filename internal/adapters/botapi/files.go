package botapi

// В этом файле (files.go): скачивание присланных документов во временный
// каталог. Bot API отдаёт файл по прямой ссылке после getFile, бот сохраняет
// его атомарной записью и возвращает путь; удаление после обработки лежит
// на вызывающем.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-quizbot/internal/infra/storage"
)

// downloadTimeout — предел на скачивание одного файла, секунды.
const downloadTimeout = 60

// maxDocumentSize — предел размера принимаемого документа, байты.
// Файлы с вопросами на практике весят сотни килобайт, 20 МБ — это ещё
// и потолок самого Bot API на getFile.
const maxDocumentSize = 20 << 20

// DownloadDocument скачивает документ doc во временный каталог отправителя
// и возвращает путь к сохранённому файлу. Имя строится из chatID и исходного
// расширения, так что повторная загрузка того же пользователя переписывает
// прежний файл.
func (s *Sender) DownloadDocument(ctx context.Context, doc *tgbotapi.Document, chatID int64) (string, error) {
	if doc == nil {
		return "", errors.New("в сообщении нет документа")
	}
	if doc.FileSize > maxDocumentSize {
		return "", errors.Errorf("файл слишком большой: %d байт", doc.FileSize)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	file, err := s.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return "", errors.Wrap(err, "getFile")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(s.api.Token), nil)
	if err != nil {
		return "", err
	}
	client := &http.Client{Timeout: downloadTimeout * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "скачивание файла")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("скачивание файла: статус %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return "", errors.Wrap(err, "чтение тела ответа")
	}
	if len(data) > maxDocumentSize {
		return "", errors.New("файл превышает допустимый размер")
	}

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	path := filepath.Join(s.tempDir, fmt.Sprintf("upload_%d%s", chatID, ext))
	if err := storage.AtomicWriteFile(path, data); err != nil {
		return "", errors.Wrap(err, "сохранение файла")
	}
	return path, nil
}
