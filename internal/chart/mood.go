// Package chart рисует PNG график настроения за период.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

// Константы размеров и отступов
const (
	imageWidth      = 1200
	imageHeight     = 600
	headerHeight    = 70
	footerHeight    = 50
	leftLabelsWidth = 60
	rightPadding    = 30
	barPadding      = 0.15
	barRadius       = 4.0
	minScore        = 1
	maxScore        = 5
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	gridColor      = color.NRGBA{200, 200, 200, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{232, 232, 232, 255}
	todayBgColor   = color.NRGBA{255, 99, 71, 60}
	averageColor   = color.NRGBA{255, 80, 80, 200}
	barShadowColor = color.RGBA{0, 0, 0, 20}
)

// scoreColors цвет столбца по округлённой оценке
var scoreColors = map[int]color.RGBA{
	1: {229, 115, 115, 230},
	2: {255, 183, 77, 230},
	3: {255, 213, 79, 230},
	4: {174, 213, 129, 230},
	5: {102, 187, 106, 230},
}

// dayBucket средняя оценка за один день
type dayBucket struct {
	day   time.Time
	total int
	count int
}

func (b dayBucket) average() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.total) / float64(b.count)
}

// RenderMood рисует столбцы средней оценки по дням от today-days+1 до today включительно
func RenderMood(history *model.MoodHistory, days int, today time.Time) ([]byte, error) {
	if days < 1 {
		return nil, fmt.Errorf("chart needs at least one day, got %d", days)
	}

	buckets := bucketByDay(history.Entries, days, today)

	dc := createCanvas()
	dayWidth := float64(imageWidth-leftLabelsWidth-rightPadding) / float64(days)
	plotTop := float64(headerHeight)
	plotHeight := float64(imageHeight - headerHeight - footerHeight)

	drawHeader(dc, buckets[0].day, buckets[len(buckets)-1].day)
	drawDays(dc, buckets, dayWidth, plotTop, plotHeight)
	drawScoreGrid(dc, plotTop, plotHeight)
	drawAverageLine(dc, history.Summary, plotTop, plotHeight)
	drawFooter(dc, history.Summary)

	return encodeImage(dc)
}

// bucketByDay раскладывает записи по дням периода, записи вне периода игнорируются
func bucketByDay(entries []*model.MoodEntry, days int, today time.Time) []dayBucket {
	end := normalizeToDay(today)
	start := end.AddDate(0, 0, -(days - 1))

	buckets := make([]dayBucket, days)
	for i := range buckets {
		buckets[i].day = start.AddDate(0, 0, i)
	}

	for _, e := range entries {
		idx := int(normalizeToDay(e.CreatedAt).Sub(start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		buckets[idx].total += e.Score
		buckets[idx].count++
	}
	return buckets
}

// normalizeToDay приводит время к началу дня в UTC
func normalizeToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// scoreY переводит оценку в координату по вертикали
func scoreY(score, plotTop, plotHeight float64) float64 {
	return plotTop + plotHeight - (score-minScore+1)/(maxScore-minScore+1)*plotHeight
}

// createCanvas создает новый контекст рисования с фоном
func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return dc
}

func drawHeader(dc *gg.Context, from, to time.Time) {
	title := fmt.Sprintf("Mood %s - %s", from.Format("02.01.2006"), to.Format("02.01.2006"))
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/2, 0.5, 0.5)
}

// drawDays рисует фон дней, столбцы и подписи дат
func drawDays(dc *gg.Context, buckets []dayBucket, dayWidth, plotTop, plotHeight float64) {
	// подписи не влезают при длинном периоде
	labelEvery := 1
	for float64(labelEvery)*dayWidth < 40 {
		labelEvery++
	}

	last := len(buckets) - 1
	for i, b := range buckets {
		x := float64(leftLabelsWidth) + float64(i)*dayWidth

		switch {
		case i == last:
			dc.SetColor(todayBgColor)
		case i%2 == 0:
			dc.SetColor(evenDayColor)
		default:
			dc.SetColor(oddDayColor)
		}
		dc.DrawRectangle(x, plotTop, dayWidth, plotHeight)
		dc.Fill()

		if b.count > 0 {
			drawBar(dc, b, x, dayWidth, plotTop, plotHeight)
		}

		if i%labelEvery == 0 || i == last {
			dc.SetColor(textColor)
			dc.DrawStringAnchored(b.day.Format("02.01"), x+dayWidth/2, plotTop+plotHeight+14, 0.5, 0.5)
		}
	}
}

func drawBar(dc *gg.Context, b dayBucket, x, dayWidth, plotTop, plotHeight float64) {
	avg := b.average()
	top := scoreY(avg, plotTop, plotHeight)
	bottom := plotTop + plotHeight
	pad := dayWidth * barPadding
	width := dayWidth - 2*pad

	// Тень
	dc.SetColor(barShadowColor)
	dc.DrawRoundedRectangle(x+pad+2, top+2, width, bottom-top-2, barRadius)
	dc.Fill()

	fill := scoreColors[int(avg+0.5)]
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+pad, top, width, bottom-top, barRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+pad, top, width, bottom-top, barRadius)
	dc.Stroke()
}

// drawScoreGrid рисует горизонтальные линии и подписи оценок слева
func drawScoreGrid(dc *gg.Context, plotTop, plotHeight float64) {
	dc.SetLineWidth(0.5)
	for score := minScore; score <= maxScore; score++ {
		y := scoreY(float64(score), plotTop, plotHeight)
		dc.SetColor(gridColor)
		dc.DrawLine(float64(leftLabelsWidth), y, float64(imageWidth-rightPadding), y)
		dc.Stroke()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("%d", score), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

// drawAverageLine рисует линию средней оценки за период
func drawAverageLine(dc *gg.Context, summary model.MoodSummary, plotTop, plotHeight float64) {
	if summary.Count == 0 {
		return
	}
	y := scoreY(summary.Average, plotTop, plotHeight)
	dc.SetColor(averageColor)
	dc.SetLineWidth(2)
	dc.SetDash(8, 6)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(imageWidth-rightPadding), y)
	dc.Stroke()
	dc.SetDash()
}

func drawFooter(dc *gg.Context, summary model.MoodSummary) {
	text := "No entries for this period"
	if summary.Count > 0 {
		text = fmt.Sprintf("Entries: %d   Average: %.2f   Streak: %d days", summary.Count, summary.Average, summary.StreakDays)
	}
	dc.SetColor(textColor)
	dc.DrawStringAnchored(text, float64(imageWidth)/2, float64(imageHeight)-float64(footerHeight)/3, 0.5, 0.5)
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
