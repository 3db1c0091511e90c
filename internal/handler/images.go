package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/repository"
	"telegram-duel-bot/internal/service"
)

// imagesHelpText is the usage text for the image catalog commands.
const imagesHelpText = `群图片bot使用指南：
1. 上传：先引用所需上传的图片，然后发送：/save 名称
2. 上传前可发送 /folders 查询文件夹是否存在；不存在时会以该名称新建
3. 别名查询：/aliases 文件夹名
4. 增加别名：/alias 文件夹名 别名（管理员）
5. 删除别名：/unalias 文件夹名 别名（管理员）
6. 查图：直接发送文件夹名或别名，bot随机发送一张图片`

// ImagesHandler handles the image folder catalog commands.
type ImagesHandler struct {
	catalog *service.CatalogService
	cfg     *config.Config
}

// NewImagesHandler creates an ImagesHandler.
func NewImagesHandler(catalog *service.CatalogService, cfg *config.Config) *ImagesHandler {
	return &ImagesHandler{catalog: catalog, cfg: cfg}
}

// TryHandleFolder consumes a plain text message when it names a known
// image folder or alias, replying with a random image from it.
func (h *ImagesHandler) TryHandleFolder(c tele.Context) (bool, error) {
	name := strings.TrimSpace(c.Text())
	if name == "" {
		return false, nil
	}

	path, err := h.catalog.RandomImage(context.Background(), name)
	if err != nil {
		if errors.Is(err, service.ErrFolderNotFound) {
			return false, nil
		}
		if errors.Is(err, service.ErrNoImages) {
			return true, c.Reply(fmt.Sprintf("📂 文件夹 %s 中没有找到图片", name))
		}
		return false, err
	}

	return true, c.Send(&tele.Photo{File: tele.FromDisk(path)})
}

// HandleSave handles /save <name>: stores the photo from the replied-to
// message into the named folder. Admin only.
func (h *ImagesHandler) HandleSave(c tele.Context) error {
	if !h.cfg.IsAdmin(c.Sender().ID) {
		return c.Reply("❌ 权限不足：需要管理员权限")
	}

	name := strings.TrimSpace(c.Message().Payload)
	if name == "" {
		return c.Reply("📝 请使用格式：/save 文件夹名")
	}

	reply := c.Message().ReplyTo
	if reply == nil || reply.Photo == nil {
		return c.Reply("⚠️ 请先引用包含图片的消息")
	}

	ctx := context.Background()
	folderName, created, err := h.catalog.EnsureFolder(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFolderName) {
			return c.Reply("⚠️ 包含非法字符，请使用合法文件夹名称")
		}
		return c.Reply(fmt.Sprintf("⚠️ 数据库操作失败：%v", err))
	}
	if created {
		log.Info().Str("folder", folderName).Msg("Created image folder")
	}

	content, err := h.downloadPhoto(c, reply.Photo)
	if err != nil {
		log.Error().Err(err).Str("folder", folderName).Msg("Failed to download photo")
		return c.Reply("❌ 图片下载失败，请稍后重试")
	}

	if _, err := h.catalog.SaveImage(ctx, folderName, content); err != nil {
		log.Error().Err(err).Str("folder", folderName).Msg("Failed to save image")
		return c.Reply(fmt.Sprintf("⚠️ 图片保存失败：%v", err))
	}

	return c.Reply(fmt.Sprintf("✅ 成功保存图片到 %s", folderName))
}

// HandleFolders handles /folders: lists registered folder names.
func (h *ImagesHandler) HandleFolders(c tele.Context) error {
	folders, err := h.catalog.ListFolders(context.Background())
	if err != nil {
		return c.Reply(fmt.Sprintf("⚠️ 数据库操作失败：%v", err))
	}
	if len(folders) == 0 {
		return c.Reply("还没有任何图片文件夹")
	}

	return c.Reply("所有名称列表：\n" + strings.Join(folders, "\n"))
}

// HandleAliases handles /aliases <folder>: lists a folder's lookup names.
func (h *ImagesHandler) HandleAliases(c tele.Context) error {
	folderName := strings.TrimSpace(c.Message().Payload)
	if folderName == "" {
		return c.Reply("📝 请使用格式：/aliases 文件夹名")
	}

	aliases, err := h.catalog.ListAliases(context.Background(), folderName)
	if err != nil {
		return c.Reply(fmt.Sprintf("⚠️ 数据库操作失败：%v", err))
	}
	if len(aliases) == 0 {
		return c.Reply(fmt.Sprintf("⚠️ 文件夹 %s 不存在", folderName))
	}

	return c.Reply(fmt.Sprintf("%s所有名称列表：\n%s", folderName, strings.Join(aliases, "\n")))
}

// HandleAddAlias handles /alias <folder> <name>. Admin only.
func (h *ImagesHandler) HandleAddAlias(c tele.Context) error {
	if !h.cfg.IsAdmin(c.Sender().ID) {
		return c.Reply("❌ 权限不足：需要管理员权限")
	}

	folderName, extraName, ok := splitPair(c.Message().Payload)
	if !ok {
		return c.Reply("📝 请使用格式：/alias 文件夹名 别名")
	}

	err := h.catalog.AddAlias(context.Background(), folderName, extraName)
	switch {
	case errors.Is(err, service.ErrFolderNotFound):
		return c.Reply(fmt.Sprintf("⚠️ 文件夹 %s 不存在", folderName))
	case errors.Is(err, repository.ErrAliasExists):
		return c.Reply(fmt.Sprintf("⚠️ 文件夹 %s 已存在其他名称 %s", folderName, extraName))
	case err != nil:
		return c.Reply(fmt.Sprintf("⚠️ 数据库写入失败：%v", err))
	}

	return c.Reply(fmt.Sprintf("已为 %s 文件夹添加其他名称 %s", folderName, extraName))
}

// HandleDeleteAlias handles /unalias <folder> <name>. Admin only.
func (h *ImagesHandler) HandleDeleteAlias(c tele.Context) error {
	if !h.cfg.IsAdmin(c.Sender().ID) {
		return c.Reply("❌ 权限不足：需要管理员权限")
	}

	folderName, extraName, ok := splitPair(c.Message().Payload)
	if !ok {
		return c.Reply("📝 请使用格式：/unalias 文件夹名 别名")
	}

	err := h.catalog.DeleteAlias(context.Background(), folderName, extraName)
	switch {
	case errors.Is(err, repository.ErrAliasNotFound):
		return c.Reply(fmt.Sprintf("%s 文件夹的其他名称 %s 不存在", folderName, extraName))
	case err != nil:
		return c.Reply(fmt.Sprintf("⚠️ 数据库操作失败：%v", err))
	}

	return c.Reply(fmt.Sprintf("已为 %s 文件夹删除其他名称 %s", folderName, extraName))
}

// HandleHelp handles /help.
func (h *ImagesHandler) HandleHelp(c tele.Context) error {
	return c.Reply(imagesHelpText)
}

// downloadPhoto fetches the photo's file content from Telegram.
func (h *ImagesHandler) downloadPhoto(c tele.Context, photo *tele.Photo) ([]byte, error) {
	rc, err := c.Bot().File(&photo.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// splitPair splits a command payload into exactly two fields.
func splitPair(payload string) (string, string, bool) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
