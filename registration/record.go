// Package registration 定义参会登记记录及其创建流程。
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalid 表示登记信息未通过校验。
var ErrInvalid = errors.New("registration: invalid input")

// Record 是一条参会登记，渲染阶段只读。
// PhotoPath 为空表示没有上传照片，这是合法状态。
type Record struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,max=120"`
	Cluster      string    `json:"cluster" validate:"required,max=120"`
	Unit         string    `json:"unit" validate:"required,max=120"`
	Designations []string  `json:"designations" validate:"dive,max=80"`
	PhotoPath    string    `json:"photoPath,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasPhoto reports whether the record references a stored photo.
func (r Record) HasPhoto() bool { return strings.TrimSpace(r.PhotoPath) != "" }

// DesignationText 以 ", " 连接职务；空列表返回空字符串。
func (r Record) DesignationText() string {
	return strings.Join(r.Designations, ", ")
}

// Repository 是文档存储的抽象，ListAll 返回完整快照，顺序由实现决定。
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListAll(ctx context.Context) ([]Record, error)
}

// Draft 是尚未落库的登记输入。
type Draft struct {
	Name         string
	Cluster      string
	Unit         string
	Designations []string
	PhotoPath    string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewRecord 规范化输入并校验，成功时分配 ID 与创建时间。
func NewRecord(d Draft, now time.Time) (Record, error) {
	rec := Record{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(d.Name),
		Cluster:      strings.TrimSpace(d.Cluster),
		Unit:         strings.TrimSpace(d.Unit),
		Designations: NormalizeDesignations(d.Designations),
		PhotoPath:    strings.TrimSpace(d.PhotoPath),
		CreatedAt:    now.UTC(),
	}
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return Record{}, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return Record{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return rec, nil
}

// NormalizeDesignations 拆分逗号分隔的取值，去掉空白与空项，保持原有顺序。
func NormalizeDesignations(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
