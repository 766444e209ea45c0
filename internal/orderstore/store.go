package orderstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/linemk/qris-shop/internal/storage"
)

var ErrStoreClosed = errors.New("order store is closed")

// MutateFunc меняет переданный набор и сообщает, было ли изменение.
// Набор - это копия; всё, что функция хочет вернуть наружу, она должна скопировать.
type MutateFunc func(book *models.OrderBook) (changed bool, err error)

// ViewFunc только читает набор
type ViewFunc func(book *models.OrderBook)

type request struct {
	ctx    context.Context
	mutate MutateFunc
	view   ViewFunc
	resp   chan error
}

// Store - единственная горутина, которая владеет набором заказов.
// Остальные компоненты общаются с ней через канал запросов, запросы выполняются строго по очереди.
type Store struct {
	log     *slog.Logger
	storage storage.DocumentStorage

	reqs      chan request
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Open загружает документ, сразу записывает его обратно (файл появляется, даже если его не было)
// и запускает горутину-владельца.
func Open(ctx context.Context, log *slog.Logger, st storage.DocumentStorage) (*Store, error) {
	const op = "orderstore.Open"

	book, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := st.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("%s: initial flush: %w", op, err)
	}

	s := &Store{
		log:     log.With(slog.String("component", "orderstore")),
		storage: st,
		reqs:    make(chan request),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.log.Info("order store loaded", slog.Int("orders", book.Len()))

	go s.loop(book)
	return s, nil
}

// Close останавливает горутину-владельца и ждёт её завершения
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

// Mutate выполняет fn на копии набора. Если fn сообщила об изменении, копия
// целиком сохраняется в хранилище и только после успешной записи становится текущим состоянием.
// При ошибке fn или записи текущее состояние не меняется.
func (s *Store) Mutate(ctx context.Context, fn MutateFunc) error {
	return s.do(ctx, request{ctx: ctx, mutate: fn})
}

// View выполняет fn над текущим набором без изменений
func (s *Store) View(ctx context.Context, fn ViewFunc) error {
	return s.do(ctx, request{ctx: ctx, view: fn})
}

func (s *Store) do(ctx context.Context, req request) error {
	req.resp = make(chan error, 1)

	select {
	case s.reqs <- req:
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// запрос уже у владельца: ждём его ответа, иначе зафиксированное изменение
	// вернулось бы вызывающему как ошибка. Save получает req.ctx, так что ожидание конечно
	return <-req.resp
}

func (s *Store) loop(book *models.OrderBook) {
	defer close(s.stopped)

	for {
		select {
		case <-s.quit:
			return
		case req := <-s.reqs:
			if req.view != nil {
				req.view(book)
				req.resp <- nil
				continue
			}

			next, err := s.apply(req, book)
			if err == nil && next != nil {
				book = next
			}
			req.resp <- err
		}
	}
}

// apply возвращает новый набор, если он изменился и был сохранён
func (s *Store) apply(req request, book *models.OrderBook) (*models.OrderBook, error) {
	staged := book.Clone()
	changed, err := req.mutate(staged)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}

	if err := s.storage.Save(req.ctx, staged); err != nil {
		s.log.Error("failed to flush order document", slog.Any("error", err))
		return nil, fmt.Errorf("flush order document: %w", err)
	}
	return staged, nil
}
