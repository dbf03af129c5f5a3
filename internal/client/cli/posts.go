package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/board"
	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/netx"
	"github.com/spf13/cobra"
)

func (a *App) printPost(p *codec.GroupPost) {
	a.printf("%s\t%s\n", p.ID, p.Title)
	a.printf("by %s at %s, %d comments\n", p.AuthorName, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.CommentCount)
	if p.Content != "" {
		a.println(p.Content)
	}
	if p.AttachmentKey != "" {
		a.printf("attachment: %s\n", p.AttachmentKey)
	}
}

func (a *App) Posts(ctx context.Context, groupID, cursor string, limit int) error {
	page, err := a.api.Posts(ctx, groupID, cursor, limit)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		a.println("No posts")
	}
	for _, p := range page.Items {
		a.printf("%s\t%s\t%s\t(%d)\n", p.ID, p.AuthorName, p.Title, p.CommentCount)
	}
	if page.Cursor != "" {
		a.printf("next cursor: %s\n", page.Cursor)
	}
	return nil
}

func (a *App) ShowPost(ctx context.Context, postID string) error {
	p, err := a.api.Post(ctx, postID)
	if err != nil {
		return err
	}
	a.printPost(p)
	return nil
}

// upload sends the file at path to a presigned URL and returns the object key.
func (a *App) upload(ctx context.Context, groupID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	signed, err := a.api.PresignUpload(ctx, groupID, filepath.Base(path))
	if err != nil {
		return "", err
	}
	if err := netx.UploadPresigned(ctx, a.files, signed.Method, signed.URL, f, info.Size()); err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return signed.Key, nil
}

func (a *App) CreatePost(ctx context.Context, groupID string, in board.PostInput, file string) (*codec.GroupPost, error) {
	if file != "" {
		key, err := a.upload(ctx, groupID, file)
		if err != nil {
			return nil, err
		}
		in.AttachmentKey = key
	}
	p, err := a.api.CreatePost(ctx, groupID, in)
	if err != nil {
		return nil, err
	}
	a.printf("Created post %s\n", p.ID)
	return p, nil
}

func (a *App) EditPost(ctx context.Context, postID string, patch board.PostPatch) error {
	if patch.Title == "" && patch.Content == "" {
		return fmt.Errorf("%w: nothing to change", common.ErrorValidation)
	}
	p, err := a.api.UpdatePost(ctx, postID, patch)
	if err != nil {
		return err
	}
	a.printf("Updated post %s\n", p.ID)
	return nil
}

func (a *App) RemovePost(ctx context.Context, postID string) error {
	if err := a.api.DeletePost(ctx, postID); err != nil {
		return err
	}
	a.printf("Removed post %s\n", postID)
	return nil
}

func (a *App) Attachment(ctx context.Context, postID string) error {
	signed, err := a.api.PresignDownload(ctx, postID)
	if err != nil {
		return err
	}
	a.println(signed.URL)
	return nil
}

func (a *App) Comments(ctx context.Context, postID, cursor string, limit int) error {
	page, err := a.api.Comments(ctx, postID, cursor, limit)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		a.println("No comments")
	}
	for _, c := range page.Items {
		a.printf("%s\t%s: %s\n", c.ID, c.AuthorName, c.Content)
	}
	if page.Cursor != "" {
		a.printf("next cursor: %s\n", page.Cursor)
	}
	return nil
}

func (a *App) AddComment(ctx context.Context, postID, content string) error {
	c, err := a.api.CreateComment(ctx, postID, content)
	if err != nil {
		return err
	}
	a.printf("Added comment %s\n", c.ID)
	return nil
}

func pageFlags(cmd *cobra.Command, cursor *string, limit *int) {
	cmd.Flags().StringVar(cursor, "cursor", "", "page cursor")
	cmd.Flags().IntVar(limit, "limit", 0, "page size")
}

func newPostCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "post",
		Aliases: []string{"posts"},
		Short:   "Read and write group board posts",
	}

	var (
		cursor string
		limit  int
	)
	ls := &cobra.Command{
		Use:   "ls <group-id>",
		Short: "List the posts of a group, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Posts(ctx, args[0], cursor, limit)
		}),
	}
	pageFlags(ls, &cursor, &limit)

	var (
		in   board.PostInput
		file string
	)
	add := &cobra.Command{
		Use:   "add <group-id>",
		Short: "Write a post",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			_, err := a.CreatePost(ctx, args[0], in, file)
			return err
		}),
	}
	add.Flags().StringVarP(&in.Title, "title", "t", "", "post title")
	add.Flags().StringVarP(&in.Content, "content", "m", "", "post text")
	add.Flags().StringVarP(&file, "file", "f", "", "attach a file")

	var patch board.PostPatch
	edit := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Change your post",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			return a.EditPost(ctx, args[0], patch)
		}),
	}
	edit.Flags().StringVarP(&patch.Title, "title", "t", "", "new title")
	edit.Flags().StringVarP(&patch.Content, "content", "m", "", "new text")

	cmd.AddCommand(
		ls,
		&cobra.Command{
			Use:   "show <post-id>",
			Short: "Show a post",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.ShowPost(ctx, args[0])
			}),
		},
		add,
		edit,
		&cobra.Command{
			Use:   "rm <post-id>",
			Short: "Delete your post",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.RemovePost(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "attachment <post-id>",
			Short: "Print a download link for the post's attachment",
			Args:  cobra.ExactArgs(1),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.Attachment(ctx, args[0])
			}),
		},
	)
	return cmd
}

func newCommentCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		Short:   "Read and write comments on a post",
	}

	var (
		cursor string
		limit  int
	)
	ls := &cobra.Command{
		Use:   "ls <post-id>",
		Short: "List the comments of a post, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Comments(ctx, args[0], cursor, limit)
		}),
	}
	pageFlags(ls, &cursor, &limit)

	cmd.AddCommand(
		ls,
		&cobra.Command{
			Use:   "add <post-id> <text...>",
			Short: "Comment on a post",
			Args:  cobra.MinimumNArgs(2),
			RunE: st.withApp(func(ctx context.Context, a *App, args []string) error {
				return a.AddComment(ctx, args[0], strings.Join(args[1:], " "))
			}),
		},
	)
	return cmd
}
