package utils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
)

// MaxBodyBytes 限制 JSON 请求体大小
const MaxBodyBytes = 64 << 10

// ErrEmptyBody 表示请求体为空
var ErrEmptyBody = errors.New("request body is empty")

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	data, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		log.Printf("[http] failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("[http] failed to write response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// DecodeJSON 读取并解析请求体，超过 MaxBodyBytes 的请求体视为错误
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return ErrEmptyBody
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
