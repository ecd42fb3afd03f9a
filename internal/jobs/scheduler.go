// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: прогрев кеша лент
// и перечитывание списка слов автомодерации.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/middleware"
)

// Warmer прогревает кеш лент.
type Warmer interface {
	WarmFrontPages(ctx context.Context) error
}

// WordList перечитывает список слов из файла.
type WordList interface {
	LoadFromFileJSON(path string) error
}

// Specs: расписания задач в формате cron. Пустое расписание отключает задачу.
type Specs struct {
	WarmListings string
	ReloadWords  string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	warmer    Warmer
	words     WordList
	wordsPath string
	specs     Specs
}

// NewScheduler создаёт планировщик. words может быть nil, если список слов не настроен.
func NewScheduler(warmer Warmer, words WordList, wordsPath string, specs Specs) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		warmer:    warmer,
		words:     words,
		wordsPath: wordsPath,
		specs:     specs,
	}
}

// Start регистрирует и запускает задачи. Ошибка: некорректное расписание.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.specs.WarmListings != "" && s.warmer != nil {
		if _, err := s.cron.AddFunc(s.specs.WarmListings, func() { s.WarmListings(ctx) }); err != nil {
			return fmt.Errorf("расписание прогрева лент %q: %w", s.specs.WarmListings, err)
		}
	}
	if s.specs.ReloadWords != "" && s.words != nil && s.wordsPath != "" {
		if _, err := s.cron.AddFunc(s.specs.ReloadWords, func() { s.ReloadWords() }); err != nil {
			return fmt.Errorf("расписание списка слов %q: %w", s.specs.ReloadWords, err)
		}
	}

	s.cron.Start()
	log.WithField("jobs", len(s.cron.Entries())).Info("Планировщик задач запущен (UTC)")
	return nil
}

// WarmListings: задача прогрева кеша лент.
func (s *Scheduler) WarmListings(ctx context.Context) {
	defer middleware.RecoverFromPanic("jobs")
	log.Debug("[CRON] Прогрев кеша лент")
	if err := s.warmer.WarmFrontPages(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка прогрева лент")
	}
}

// ReloadWords: задача перечитывания списка слов.
func (s *Scheduler) ReloadWords() {
	defer middleware.RecoverFromPanic("jobs")
	if err := s.words.LoadFromFileJSON(s.wordsPath); err != nil {
		log.WithError(err).WithField("path", s.wordsPath).Error("[CRON] Ошибка загрузки списка слов, оставляем прежний")
		return
	}
	log.WithField("path", s.wordsPath).Info("[CRON] Список слов перечитан")
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
