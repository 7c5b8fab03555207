package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/seedman/internal/worker/taskrunner"
)

// StepRunner はタスクのステップ実行インターフェース。
type StepRunner interface {
	// Step はタスクを1ステップ進め、結果を返す。
	Step(ctx context.Context) (*taskrunner.StepResult, error)
}

// TaskHandler はタスク実行のHTTPハンドラー。
type TaskHandler struct {
	runner StepRunner
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(runner StepRunner) *TaskHandler {
	return &TaskHandler{runner: runner}
}

// stepResponse はステップ実行のAPIレスポンス。
type stepResponse struct {
	Message string `json:"message"`
	*taskrunner.StepResult
}

// Step はタスクを1ステップ進める。1回の呼び出しで処理する対象は最大1件。
// POST /api/tasks/step
func (h *TaskHandler) Step(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Step(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	message := "ステップを実行しました"
	if result.TaskID == "" {
		message = "処理対象のタスクはありません"
	}

	writeJSONResponse(w, http.StatusOK, stepResponse{
		Message:    message,
		StepResult: result,
	})
}
