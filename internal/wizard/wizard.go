// Package wizard implements the event-authoring conversation: a per-user
// finite-state machine collecting the fields of a new event, either step by
// step or by parsing a pasted post.
package wizard

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"ticket-bot/internal/logger"
	"ticket-bot/internal/models"
	"ticket-bot/internal/storage"
	"ticket-bot/internal/utils"
)

type Stage int

const (
	StageTitle Stage = iota
	StageDate
	StageEndLocation
	StageDescription
	StagePrice
	StagePhoto
	StageTransferOption
	StageStartLocation
	StageTransferTime
	StageTransferPrice
	StageTitleFromPost
	StageParseFromPost
)

const (
	CancelToken = "Annulla"
	BackToken   = "Indietro"

	// DateLayout is the format every date input must follow.
	DateLayout = "02/01/2006 15:04"

	maxTitleRunes = 100
	// captionLimit is the rendering cap for image captions: the platform's
	// 1024-character limit minus headroom for the generated caption framing.
	captionLimit = 1024 - 200
	// minPrice is one unit of the major currency, in minor units.
	minPrice = 100
)

// Draft accumulates the fields of the event under construction.
type Draft struct {
	Title         string
	Date          time.Time
	EndLocation   string
	Description   string
	Price         int64
	ImagePath     string
	StartLocation string
	TransferTime  time.Time
	TransferPrice int64
}

// Conversation is one user's active authoring session.
type Conversation struct {
	Stage Stage
	Draft Draft
}

// Input is one inbound message, either text or a photo attachment.
type Input struct {
	Text     string
	HasPhoto bool
	PhotoExt string
}

type Keyboard int

const (
	KeyboardMain Keyboard = iota
	KeyboardSteps
	KeyboardStepsNoBack
)

// Result describes the outbound reply of one transition.
type Result struct {
	Reply    string
	Markdown bool
	Keyboard Keyboard

	Done      bool
	Cancelled bool
	EventID   int64
	// PhotoSaved reports that the image reference was just recorded; the
	// transport downloads the asset bytes to Draft.ImagePath.
	PhotoSaved bool
}

type Wizard struct {
	store    storage.Store
	imageDir string
	log      *logger.Logger
	now      func() time.Time
}

func New(store storage.Store, imageDir string, log *logger.Logger) *Wizard {
	return &Wizard{
		store:    store,
		imageDir: imageDir,
		log:      log,
		now:      time.Now,
	}
}

// EntryPrompt returns the opening reply for a fresh conversation.
func EntryPrompt(stage Stage) Result {
	if stage == StageTitleFromPost {
		return Result{Reply: "Stai aggiungendo da un post. Qual'è il nome dell'evento?", Keyboard: KeyboardStepsNoBack}
	}
	return Result{Reply: "Aggiungiamo un nuovo evento. Qual'è il nome dell'evento?", Keyboard: KeyboardStepsNoBack}
}

// Advance applies one inbound message to the conversation. The cancel and
// back tokens are handled here for every stage; anything else is dispatched
// to the stage's own logic. The conversation is mutated in place; terminal
// results (Done or Cancelled) leave it to the caller to discard it.
func (w *Wizard) Advance(c *Conversation, in Input) (Result, error) {
	if in.Text == CancelToken {
		return Result{Reply: "Conversazione annullata.", Keyboard: KeyboardMain, Cancelled: true}, nil
	}
	if in.Text == BackToken {
		if res, ok := w.backTo(c); ok {
			return res, nil
		}
	}

	switch c.Stage {
	case StageTitle, StageTitleFromPost:
		return w.stepTitle(c, in)
	case StageParseFromPost:
		return w.stepParseFromPost(c, in)
	case StageDate:
		return w.stepDate(c, in)
	case StageEndLocation:
		return w.stepEndLocation(c, in)
	case StageDescription:
		return w.stepDescription(c, in)
	case StagePrice:
		return w.stepPrice(c, in)
	case StagePhoto:
		return w.stepPhoto(c, in)
	case StageTransferOption:
		return w.stepTransferOption(c, in)
	case StageStartLocation:
		return w.stepStartLocation(c, in)
	case StageTransferTime:
		return w.stepTransferTime(c, in)
	case StageTransferPrice:
		return w.stepTransferPrice(c, in)
	}
	return Result{}, fmt.Errorf("unknown wizard stage %d", c.Stage)
}

// backTo steps to the immediately preceding stage of the active path,
// keeping the fields collected so far. The two title stages have no
// predecessor; there the token is treated as ordinary text.
func (w *Wizard) backTo(c *Conversation) (Result, bool) {
	var prev Stage
	switch c.Stage {
	case StageParseFromPost:
		prev = StageTitleFromPost
	case StageDate:
		prev = StageTitle
	case StageEndLocation:
		prev = StageDate
	case StageDescription:
		prev = StageEndLocation
	case StagePrice:
		prev = StageDescription
	case StagePhoto:
		prev = StagePrice
	case StageTransferOption:
		prev = StagePhoto
	case StageStartLocation:
		prev = StageTransferOption
	case StageTransferTime:
		prev = StageStartLocation
	case StageTransferPrice:
		prev = StageTransferTime
	default:
		return Result{}, false
	}
	c.Stage = prev
	return w.prompt(prev), true
}

// prompt returns the question asked on entering a stage.
func (w *Wizard) prompt(stage Stage) Result {
	switch stage {
	case StageTitle, StageTitleFromPost:
		return EntryPrompt(stage)
	case StageParseFromPost:
		return Result{
			Reply: "Perfetto. Ora invia un post da cui prenderò le informazioni sull'evento con questo formato:\n\n" +
				"data in formato dd/mm/yyyy hh:mm\n\nlocation / locale\n\ndescrizione",
			Keyboard: KeyboardSteps,
		}
	case StageDate:
		return Result{
			Reply: "Ottimo! Ora, inserisci la data e l'ora dell'evento (formato: DD/MM/YYYY HH:MM):\n```Esempio:\n" +
				w.now().Format(DateLayout) + "```",
			Markdown: true,
			Keyboard: KeyboardSteps,
		}
	case StageEndLocation:
		return Result{Reply: "Qual'è la location / il locale dell'evento?", Keyboard: KeyboardSteps}
	case StageDescription:
		return Result{Reply: "Ottimo! Ora fornisci una descrizione per l'evento", Keyboard: KeyboardSteps}
	case StagePrice:
		return Result{Reply: "Quanto costa un biglietto? (in centesimi)", Keyboard: KeyboardSteps}
	case StagePhoto:
		return Result{Reply: "Ora manda la locandina dell'evento!", Keyboard: KeyboardSteps}
	case StageTransferOption:
		return Result{Reply: "Vuoi aggiungere una navetta per l'evento? (yes/no)", Keyboard: KeyboardSteps}
	case StageStartLocation:
		return Result{Reply: "Da dove parte il transfer?", Keyboard: KeyboardSteps}
	case StageTransferTime:
		return Result{
			Reply: "Qual'è l'orario di partenza? (formato: DD/MM/YYYY HH:MM)\n```Esempio:\n" +
				w.now().Format(DateLayout) + "```",
			Markdown: true,
			Keyboard: KeyboardSteps,
		}
	case StageTransferPrice:
		return Result{Reply: "Ottimo! Ora fornisci il prezzo del transfer (in centesimi)", Keyboard: KeyboardSteps}
	}
	return Result{}
}

func (w *Wizard) stepTitle(c *Conversation, in Input) (Result, error) {
	sanitized := utils.Sanitize(in.Text)
	if utf8.RuneCountInString(sanitized) > maxTitleRunes {
		return Result{
			Reply:    "Il titolo è troppo lungo. Per favore, usa meno di 100 caratteri.",
			Keyboard: KeyboardSteps,
		}, nil
	}
	// The title is the one field stored as typed; the sanitized form is only
	// used for the length check and the derived image path.
	c.Draft.Title = in.Text
	if c.Stage == StageTitleFromPost {
		c.Stage = StageParseFromPost
	} else {
		c.Stage = StageDate
	}
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepParseFromPost(c *Conversation, in Input) (Result, error) {
	sanitized := utils.Sanitize(in.Text)
	if utf8.RuneCountInString(sanitized) > captionLimit {
		return Result{
			Reply:    "Il post è troppo lungo. Per favore, usa meno caratteri.",
			Keyboard: KeyboardSteps,
		}, nil
	}

	var lines []string
	for _, line := range strings.Split(sanitized, "\n") {
		if utf8.RuneCountInString(strings.TrimSpace(line)) > 1 {
			lines = append(lines, line)
		}
	}

	fallback := func() Result {
		c.Stage = StageDate
		return Result{
			Reply: "Il formato non è corretto, si passa all'inserimento manuale\n" +
				"Ora, inserisci la data e l'ora dell'evento (formato: DD/MM/YYYY HH:MM)\n```Esempio:\n" +
				w.now().Format(DateLayout) + "```",
			Markdown: true,
			Keyboard: KeyboardSteps,
		}
	}

	if len(lines) < 2 {
		return fallback(), nil
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(lines[0]))
	if err != nil {
		return fallback(), nil
	}

	location := strings.TrimSpace(lines[1])
	location = strings.TrimPrefix(location, "📍")

	description := strings.Join(lines[2:], "\n")
	if utf8.RuneCountInString(description) > captionLimit {
		return Result{
			Reply: "Telegram ha un limite di 1024 caratteri per le descrizioni di immagini.\n" +
				"La descrizione che hai mandato potrebbe superare il limite, rimanda il post dell'evento accorciando la descrizione.\n",
			Keyboard: KeyboardSteps,
		}, nil
	}

	c.Draft.Date = date
	c.Draft.EndLocation = location
	c.Draft.Description = description
	c.Stage = StagePrice
	return Result{Reply: "Qual'è il costo dell'evento? (in centesimi)", Keyboard: KeyboardSteps}, nil
}

func (w *Wizard) stepDate(c *Conversation, in Input) (Result, error) {
	date, err := time.Parse(DateLayout, utils.Sanitize(strings.TrimSpace(in.Text)))
	if err != nil {
		return Result{
			Reply:    "Il formato non è corretto.```Esempio:\n" + w.now().Format(DateLayout) + "```",
			Markdown: true,
			Keyboard: KeyboardSteps,
		}, nil
	}
	c.Draft.Date = date
	c.Stage = StageEndLocation
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepEndLocation(c *Conversation, in Input) (Result, error) {
	c.Draft.EndLocation = utils.Sanitize(in.Text)
	c.Stage = StageDescription
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepDescription(c *Conversation, in Input) (Result, error) {
	c.Draft.Description = utils.Sanitize(in.Text)
	c.Stage = StagePrice
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepPrice(c *Conversation, in Input) (Result, error) {
	price, err := strconv.ParseInt(utils.Sanitize(strings.TrimSpace(in.Text)), 10, 64)
	if err != nil || price < minPrice {
		return Result{
			Reply:    "Inserisci un numero per il costo del biglietto? (in centesimi)\nValore minimo un euro",
			Keyboard: KeyboardSteps,
		}, nil
	}
	c.Draft.Price = price
	c.Stage = StagePhoto
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepPhoto(c *Conversation, in Input) (Result, error) {
	if !in.HasPhoto {
		return w.prompt(StagePhoto), nil
	}
	name := "event_" + strings.ReplaceAll(utils.Sanitize(c.Draft.Title), " ", "_") + in.PhotoExt
	c.Draft.ImagePath = filepath.Join(w.imageDir, name)
	c.Stage = StageTransferOption
	res := w.prompt(c.Stage)
	res.PhotoSaved = true
	return res, nil
}

func (w *Wizard) stepTransferOption(c *Conversation, in Input) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(in.Text)) {
	case "yes":
		c.Stage = StageStartLocation
		return w.prompt(c.Stage), nil
	case "no":
		return w.commit(c, false)
	default:
		return Result{Reply: "Non chiaro, rispondi yes/no", Keyboard: KeyboardSteps}, nil
	}
}

func (w *Wizard) stepStartLocation(c *Conversation, in Input) (Result, error) {
	c.Draft.StartLocation = utils.Sanitize(in.Text)
	c.Stage = StageTransferTime
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepTransferTime(c *Conversation, in Input) (Result, error) {
	t, err := time.Parse(DateLayout, utils.Sanitize(strings.TrimSpace(in.Text)))
	if err != nil {
		return Result{
			Reply:    "Il formato non è corretto.\n```Esempio:\n" + w.now().Format(DateLayout) + "```",
			Markdown: true,
			Keyboard: KeyboardSteps,
		}, nil
	}
	c.Draft.TransferTime = t
	c.Stage = StageTransferPrice
	return w.prompt(c.Stage), nil
}

func (w *Wizard) stepTransferPrice(c *Conversation, in Input) (Result, error) {
	price, err := strconv.ParseInt(utils.Sanitize(strings.TrimSpace(in.Text)), 10, 64)
	if err != nil || price < minPrice {
		return Result{
			Reply:    "Inserisci un numero valido per il costo del transfer (in centesimi).\nValore minimo un euro",
			Keyboard: KeyboardSteps,
		}, nil
	}
	c.Draft.TransferPrice = price
	return w.commit(c, true)
}

// commit is irreversible: once the event row exists, back and cancel no
// longer apply. Either all four transfer fields are stored or none is.
func (w *Wizard) commit(c *Conversation, withTransfer bool) (Result, error) {
	d := c.Draft
	event := &models.Event{
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		ImagePath:   d.ImagePath,
		EndLocation: d.EndLocation,
		Date:        d.Date,
		Active:      true,
	}
	if withTransfer {
		event.StartLocation = &d.StartLocation
		event.TransferPrice = &d.TransferPrice
		event.TransferTime = &d.TransferTime
	}

	id, err := w.store.SaveEvent(event)
	if err != nil {
		w.log.Error("WIZARD", fmt.Sprintf("Failed to save event %q: %v", d.Title, err))
		return Result{}, fmt.Errorf("failed to save event: %w", err)
	}

	w.log.LogProcess("WIZARD", fmt.Sprintf("Event %d (%q) created", id, d.Title))
	return Result{
		Reply:    fmt.Sprintf("Event added successfully with ID: %d", id),
		Keyboard: KeyboardMain,
		Done:     true,
		EventID:  id,
	}, nil
}
