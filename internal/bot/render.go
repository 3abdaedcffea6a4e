package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/craftbot/core/telegram/keyboard"
	"github.com/m3rciful/craftbot/internal/flow"
)

var optionButtons = map[flow.Option]keyboard.InlineBtn{
	flow.OptionSkip:    {Text: "⏭ Skip", Unique: flow.ButtonSkip},
	flow.OptionRetry:   {Text: "🔁 Retry", Unique: flow.ButtonRetry},
	flow.OptionRestart: {Text: "🔄 Start over", Unique: flow.ButtonRestart},
}

var statusButton = keyboard.InlineBtn{Text: "📋 Status", Unique: flow.ButtonStatus}

// markupFor renders the instruction options as inline buttons. A status
// button is added while a listing is in progress.
func markupFor(instr flow.Instruction) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(instr.Options)+1)
	for _, o := range instr.Options {
		if b, ok := optionButtons[o]; ok {
			btns = append(btns, b)
		}
	}
	switch instr.Kind {
	case flow.InstructionPrompt, flow.InstructionRetry, flow.InstructionFailure:
		btns = append(btns, statusButton)
	}
	return keyboard.InlineButtonsNPerRow(btns, 2)
}
