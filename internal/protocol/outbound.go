package protocol

// Intents the client may send. None of them is acknowledged; the server's
// next broadcast is the only confirmation.

type ChatPayload struct {
	Text string `json:"text"`
}

type ChooseQuestionPayload struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
}

type ValidationPayload struct {
	IsCorrect bool `json:"isCorrect"`
}

type FinalCategoryPayload struct {
	Category string `json:"category"`
}

type BetPayload struct {
	Amount int `json:"amount"`
}

type FinalAnswerPayload struct {
	Text string `json:"text"`
}

func Chat(text string) Envelope {
	return Envelope{Event: EventChat, Payload: mustJSON(ChatPayload{Text: text})}
}

func Start() Envelope { return Envelope{Event: EventStart} }

func TogglePause() Envelope { return Envelope{Event: EventTogglePause} }

func ChooseQuestion(category string, index int) Envelope {
	return Envelope{
		Event:   EventChooseQuestion,
		Payload: mustJSON(ChooseQuestionPayload{Category: category, Index: index}),
	}
}

func Answer() Envelope { return Envelope{Event: EventAnswer} }

func Validation(isCorrect bool) Envelope {
	return Envelope{Event: EventValidation, Payload: mustJSON(ValidationPayload{IsCorrect: isCorrect})}
}

func FinalCategory(category string) Envelope {
	return Envelope{Event: EventFinalCategory, Payload: mustJSON(FinalCategoryPayload{Category: category})}
}

func PlaceBet(amount int) Envelope {
	return Envelope{Event: EventBet, Payload: mustJSON(BetPayload{Amount: amount})}
}

func FinalAnswer(text string) Envelope {
	return Envelope{Event: EventFinalAnswer, Payload: mustJSON(FinalAnswerPayload{Text: text})}
}
