package echoapi

import (
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/email"
	"github.com/darasahq/darasa/core/user"
)

type emailApi struct {
	svc    *email.Service
	usrSvc *user.Service
}

func registerEmailAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *email.Service, usrSvc *user.Service) {
	api := emailApi{svc: svc, usrSvc: usrSvc}

	tg := g.Group("/email-templates", jwt, adminMiddleware())
	tg.POST("", api.createTemplate)
	tg.GET("", api.queryTemplates)
	tg.GET("/types", api.queryTemplateTypes)
	tg.GET("/:id", api.retrieveTemplate)
	tg.PUT("/:id", api.updateTemplate)
	tg.DELETE("/:id", api.destroyTemplate)
	tg.POST("/:id/preview", api.previewTemplate)

	eg := g.Group("/emails", jwt, adminMiddleware())
	eg.POST("/send", api.sendDirect)
	eg.GET("/logs", api.queryLogs)
}

func (api *emailApi) createTemplate(ctx echo.Context) error {
	var data email.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.CreateTemplate(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *emailApi) queryTemplates(ctx echo.Context) error {
	templates, err := api.svc.QueryTemplates(ctx.Request().Context(), ctx.QueryParam("template_type"))
	if err != nil {
		return errors.Wrap(err, "querying email templates")
	}
	if templates == nil {
		templates = []email.EmailTemplate{}
	}
	return ctx.JSON(http.StatusOK, templates)
}

func (api *emailApi) queryTemplateTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, email.AllTemplateTypes)
}

func (api *emailApi) retrieveTemplate(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.GetTemplate(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == email.ErrTemplateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding email template by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *emailApi) updateTemplate(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data email.UpdateTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTemplate")
	}

	t, err := api.svc.UpdateTemplate(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == email.ErrTemplateNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *emailApi) destroyTemplate(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTemplate(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == email.ErrTemplateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting email template")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// previewTemplate renders the template with sample variables without
// sending anything.
func (api *emailApi) previewTemplate(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data PreviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PreviewRequest")
	}

	rendered, err := api.svc.Preview(ctx.Request().Context(), id, data.Variables)
	if err != nil {
		if errors.Cause(err) == email.ErrTemplateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "previewing email template")
	}
	return ctx.JSON(http.StatusOK, rendered)
}

// sendDirect enqueues a one-off email; delivery happens via the outbox.
func (api *emailApi) sendDirect(ctx echo.Context) error {
	var data DirectEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DirectEmailRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	to := mail.Address{Name: data.ToName, Address: data.ToAddress}
	lg, err := api.svc.EnqueueDirect(ctx.Request().Context(), to, data.Subject, data.HTMLContent)
	if err != nil {
		return errors.Wrap(err, "enqueueing direct email")
	}
	return ctx.JSON(http.StatusAccepted, lg)
}

func (api *emailApi) queryLogs(ctx echo.Context) error {
	filter := email.LogFilter{
		Status:       ctx.QueryParam("status"),
		TemplateType: ctx.QueryParam("template_type"),
		ToAddress:    ctx.QueryParam("to_address"),
	}

	logs, err := api.svc.FilterLogs(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying email logs")
	}
	if logs == nil {
		logs = []email.EmailLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

type (
	PreviewRequest struct {
		Variables map[string]string `json:"variables"`
	}

	DirectEmailRequest struct {
		ToName      string `json:"to_name"`
		ToAddress   string `json:"to_address" validate:"required,email"`
		Subject     string `json:"subject" validate:"required,max=300"`
		HTMLContent string `json:"html_content" validate:"required"`
	}
)

func (dr *DirectEmailRequest) Validate() error {
	dr.ToName = core.CleanString(dr.ToName)
	dr.ToAddress = core.CleanString(dr.ToAddress, true /* lower */)
	dr.Subject = core.CleanString(dr.Subject)
	return core.Validate.Struct(dr)
}
