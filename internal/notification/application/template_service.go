package application

import (
	"context"
	"log/slog"
	"strings"
	"text/template"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/notification/domain"
)

// TemplateService 邮件模板管理
type TemplateService struct {
	templates domain.TemplateRepository
	logger    *slog.Logger
}

// NewTemplateService 创建模板管理服务
func NewTemplateService(templates domain.TemplateRepository, logger *slog.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		logger:    logger.With("service", "notification_templates"),
	}
}

// TemplateCommand 模板写入命令
type TemplateCommand struct {
	Name     string
	Subject  string
	Body     string
	IsActive bool
}

func (c TemplateCommand) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Validation("template name is required")
	}
	if strings.TrimSpace(c.Subject) == "" {
		return apperr.Validation("template subject is required")
	}
	// 语法坏掉的模板到发送时才会暴露，提前在写入时拦下
	if _, err := template.New("subject").Parse(c.Subject); err != nil {
		return apperr.Validation("template subject is not valid template syntax")
	}
	if _, err := template.New("body").Parse(c.Body); err != nil {
		return apperr.Validation("template body is not valid template syntax")
	}
	return nil
}

// List 全部模板
func (s *TemplateService) List(ctx context.Context) ([]*domain.EmailTemplate, error) {
	return s.templates.List(ctx)
}

// Create 新增模板，名称唯一
func (s *TemplateService) Create(ctx context.Context, cmd TemplateCommand) (*domain.EmailTemplate, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	existing, err := s.templates.GetByName(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("template name is already in use")
	}

	tmpl := &domain.EmailTemplate{
		Name:     cmd.Name,
		Subject:  cmd.Subject,
		Body:     cmd.Body,
		IsActive: cmd.IsActive,
	}
	if err := s.templates.Save(ctx, tmpl); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "email template created", "name", cmd.Name)
	return tmpl, nil
}

// Update 修改模板
func (s *TemplateService) Update(ctx context.Context, id uint, cmd TemplateCommand) (*domain.EmailTemplate, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	tmpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tmpl.Name = cmd.Name
	tmpl.Subject = cmd.Subject
	tmpl.Body = cmd.Body
	tmpl.IsActive = cmd.IsActive
	if err := s.templates.Save(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Delete 删除模板
func (s *TemplateService) Delete(ctx context.Context, id uint) error {
	return s.templates.Delete(ctx, id)
}
