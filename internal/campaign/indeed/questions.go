package indeed

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/answer"
	"go-easyapply-automation/internal/apply"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldSelect
	FieldRadio
)

// Field is one screening question on the questions page.
type Field struct {
	InputID  string
	Kind     FieldKind
	Question answer.Question
}

// ParseQuestions reads every question item of the page, in page order.
// Items without a labelled input are ignored.
func ParseQuestions(doc *goquery.Document) []Field {
	var fields []Field
	doc.Find(selQuestion).Each(func(_ int, item *goquery.Selection) {
		label := item.Find(selQuestionFor).First()
		id, ok := label.Attr("for")
		if !ok || id == "" {
			return
		}

		q := answer.Question{Text: strings.TrimSpace(item.Find(selQuestionText).First().Text())}
		if q.Text == "" {
			q.Text = strings.TrimSpace(label.Text())
		}
		if html, err := goquery.OuterHtml(item); err == nil {
			q.Optional = strings.Contains(strings.ToLower(html), "optional")
		}

		f := Field{InputID: id, Question: q}

		if fs := item.Find(selFieldset).First(); fs.Length() > 0 {
			f.Kind = FieldRadio
			fs.Find("label").Each(func(_ int, l *goquery.Selection) {
				opt := strings.TrimSpace(l.Find(selOptionText).First().Text())
				if opt == "" {
					opt = strings.TrimSpace(l.Text())
				}
				f.Question.Options = append(f.Question.Options, opt)
			})
		} else if sel := doc.Find(byID(id)); goquery.NodeName(sel) == "select" {
			f.Kind = FieldSelect
			sel.Find("option").Each(func(_ int, o *goquery.Selection) {
				if t := strings.TrimSpace(o.Text()); t != "" {
					f.Question.Options = append(f.Question.Options, t)
				}
			})
		}

		fields = append(fields, f)
	})
	return fields
}

// byID selects by id attribute; generated ids are not always valid CSS
// identifiers.
func byID(id string) string {
	return fmt.Sprintf(`[id="%s"]`, strings.ReplaceAll(id, `"`, `\"`))
}

// optionID is the id Indeed gives the n-th radio of a question.
func optionID(inputID string, n int) string {
	return byID(fmt.Sprintf("%s-%d", inputID, n))
}

func (c *Campaign) answer(f Field, a *apply.Attempt) error {
	res := c.matcher.Resolve(f.Question)
	if res.Missed {
		a.Missed++
		c.log.Info("❓ No answer", zap.String("question", f.Question.Text), zap.String("used", res.Value))
	}
	if res.Action == answer.ActionSkip {
		return nil
	}

	switch f.Kind {
	case FieldRadio:
		sel := optionID(f.InputID, res.Index)
		if err := c.d.ScrollIntoView(sel); err != nil {
			return fmt.Errorf("question %q: %w", f.Question.Text, err)
		}
		return c.d.Check(sel)
	case FieldSelect:
		sel := byID(f.InputID)
		if err := c.d.ScrollIntoView(sel); err != nil {
			return fmt.Errorf("question %q: %w", f.Question.Text, err)
		}
		return c.d.Select(sel, res.Value)
	default:
		sel := byID(f.InputID)
		if err := c.d.ScrollIntoView(sel); err != nil {
			return fmt.Errorf("question %q: %w", f.Question.Text, err)
		}
		if err := c.d.Clear(sel); err != nil {
			return err
		}
		if err := c.d.Type(sel, res.Value); err != nil {
			return err
		}
		return c.d.Press(sel, "Enter")
	}
}
