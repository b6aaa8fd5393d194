// Command mallctl runs platform payloads captured from the backend through
// the normalization layer and prints the canonical result. Useful when a
// payload renders wrong and you need to see what the server actually sees.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func NewMallctlCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "mallctl",
		Short:        "Inspect normalized social-commerce payloads",
		SilenceUsage: true,
		Example: `  mallctl inbox --file inbox.json --me 65a1b2c3d4e5f6a7b8c9d0e1 --filter shop
  mallctl thread --file post.json --comments comments.json`,
	}

	cmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "-", "Payload file, - for stdin")
	cmd.PersistentFlags().StringVar(&opts.me, "me", "", "Id of the viewing user")
	cmd.PersistentFlags().StringVar(&opts.assetBase, "asset-base", "https://api.socialmall.app", "Base URL for relative media paths")

	cmd.AddCommand(
		newInboxCommand(&opts),
		newMessagesCommand(&opts),
		newThreadCommand(&opts),
		newFeedCommand(&opts),
	)

	return cmd
}

func main() {
	if err := NewMallctlCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
