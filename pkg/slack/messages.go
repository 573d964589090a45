package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

// DispatchFailureBlocks builds Block Kit blocks for a gateway delivery
// failure notice.
func DispatchFailureBlocks(accountID, chatID string, cause error) []goslack.Block {
	header := goslack.NewHeaderBlock(
		goslack.NewTextBlockObject(goslack.PlainTextType, "🔴 Lead delivery failed", true, false),
	)

	fields := []*goslack.TextBlockObject{
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*Account:* %s", accountID), false, false),
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*Chat:* %s", chatID), false, false),
	}
	section := goslack.NewSectionBlock(nil, fields, nil)

	reason := goslack.NewContextBlock("",
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("`%s`", cause), false, false),
	)

	return []goslack.Block{header, section, reason}
}
