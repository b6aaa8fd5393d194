package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/raw"
)

type options struct {
	file      string
	me        string
	assetBase string
}

func (o *options) normalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{AssetBaseURL: o.assetBase})
}

// viewer is the resolved --me. An empty flag is allowed: nothing is then
// attributed to the viewer.
func (o *options) viewer() (entity.ID, error) {
	if o.me == "" {
		return entity.UnresolvedID, nil
	}
	id := normalize.ResolveID(raw.Str(o.me))
	if !id.Resolved() {
		return id, fmt.Errorf("--me %q is not a valid id", o.me)
	}
	return id, nil
}

func readPayload(cmd *cobra.Command, path string) (raw.Value, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return raw.Value{}, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return raw.Value{}, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := raw.Parse(data)
	if err != nil {
		return raw.Value{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type inboxEntry struct {
	entity.Conversation
	Category normalize.Category `json:"category"`
}

func newInboxCommand(opts *options) *cobra.Command {
	var filter string
	var friends []string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Normalize a conversation list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := opts.viewer()
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd, opts.file)
			if err != nil {
				return err
			}

			var ids []entity.ID
			for _, f := range friends {
				ids = append(ids, normalize.ResolveID(raw.Str(strings.TrimSpace(f))))
			}
			friendSet := entity.NewIDSet(ids...)

			convs, stats := opts.normalizer().Inbox(payload, me)
			visible := normalize.Filter(convs, normalize.InboxFilter(filter), friendSet)
			entries := make([]inboxEntry, 0, len(visible))
			for _, c := range visible {
				entries = append(entries, inboxEntry{Conversation: c, Category: normalize.ConversationCategory(c, friendSet)})
			}
			return printJSON(cmd, map[string]interface{}{
				"conversations": entries,
				"counts":        normalize.CountCategories(convs, friendSet),
				"dropped":       stats.Dropped,
				"duplicates":    stats.Duplicates,
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", string(normalize.FilterAll), "all, friends, shop or user-asking")
	cmd.Flags().StringSliceVar(&friends, "friends", nil, "Comma separated friend ids")

	return cmd
}

func newMessagesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Normalize a message list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := opts.viewer()
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd, opts.file)
			if err != nil {
				return err
			}
			return printJSON(cmd, opts.normalizer().Messages(payload, me))
		},
	}
}

func newThreadCommand(opts *options) *cobra.Command {
	var commentsFile string

	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Normalize a post and build its comment tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := opts.viewer()
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd, opts.file)
			if err != nil {
				return err
			}

			n := opts.normalizer()
			post := n.Post(payload, me)
			if commentsFile != "" {
				comments, err := readPayload(cmd, commentsFile)
				if err != nil {
					return err
				}
				post.Comments = n.BuildCommentTree(raw.List(comments, "comments", "items", "data"))
				if c := normalize.CountComments(post.Comments); c > post.CommentCount {
					post.CommentCount = c
				}
			}
			return printJSON(cmd, post)
		},
	}

	cmd.Flags().StringVar(&commentsFile, "comments", "", "Separate comment list payload")

	return cmd
}

func newFeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Normalize a shop feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := opts.viewer()
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd, opts.file)
			if err != nil {
				return err
			}
			posts, dropped := opts.normalizer().Feed(payload, me)
			return printJSON(cmd, map[string]interface{}{
				"posts":   posts,
				"dropped": dropped,
			})
		},
	}
}
