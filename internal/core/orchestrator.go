package core

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emirhncann/portable-thermal-printer/internal/dither"
	"github.com/emirhncann/portable-thermal-printer/internal/document"
	"github.com/emirhncann/portable-thermal-printer/internal/raster"
	"github.com/emirhncann/portable-thermal-printer/internal/transport"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

// Orchestrator drives one job at a time through the page pipeline:
// rasterize, normalize, dither, encode, transmit. It exclusively owns the
// spool copy, the document and the transport for the job's duration and
// releases them in reverse acquisition order on every exit path.
type Orchestrator struct {
	transport   transport.Transport
	encoder     *tspl.Encoder
	rasterizer  *raster.Rasterizer
	spoolDir    string
	settleDelay time.Duration
	log         *zap.Logger
}

func NewOrchestrator(t transport.Transport, encoder *tspl.Encoder, rasterizer *raster.Rasterizer, spoolDir string, settleDelay time.Duration, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		transport:   t,
		encoder:     encoder,
		rasterizer:  rasterizer,
		spoolDir:    spoolDir,
		settleDelay: settleDelay,
		log:         log,
	}
}

func (o *Orchestrator) Run(job *Job, emit func(StatusEvent)) {
	now := func() time.Time { return time.Now() }

	fail := func(err error) {
		if job.finish(StateFailed, err.Error()) {
			o.log.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			emit(StatusEvent{JobID: job.ID, Kind: EventFailed, Message: err.Error(), Timestamp: now()})
		}
	}
	cancelled := func() {
		if job.finish(StateCancelled, "cancelled by request") {
			o.log.Info("job cancelled", zap.String("job_id", job.ID))
			emit(StatusEvent{JobID: job.ID, Kind: EventCancelled, Timestamp: now()})
		}
	}

	if job.cancelRequested() {
		cancelled()
		return
	}

	job.advance(StateStarted, 0)
	emit(StatusEvent{JobID: job.ID, Kind: EventStarted, Timestamp: now()})

	ditherer, err := dither.New(job.Settings.DitherMode)
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrRender, err))
		return
	}

	rc, err := job.Source.Open()
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrDocument, err))
		return
	}

	spool, err := document.Spool(rc, o.spoolDir)
	rc.Close()
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrDocument, err))
		return
	}
	defer spool.Close()

	doc, err := document.Open(spool.ReaderAt(), spool.Size())
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrDocument, err))
		return
	}
	defer doc.Close()

	total := doc.PageCount()
	if total == 0 {
		fail(fmt.Errorf("%w: document has no pages", ErrDocument))
		return
	}
	job.setTotalPages(total)

	if err := o.transport.Open(); err != nil {
		fail(fmt.Errorf("%w: printer %s: %v", ErrTransport, o.transport.Name(), err))
		return
	}
	defer o.transport.Close()

	pageSettings := tspl.PageSettings{
		PaperWidthMM: job.Settings.PaperWidthMM,
		Sensing:      job.Settings.Sensing,
		Speed:        job.Settings.Speed,
		Darkness:     job.Settings.Darkness,
		Copies:       job.Settings.Copies,
	}

	for i := 0; i < total; i++ {
		// Cancellation is sampled at page boundaries only.
		if job.cancelRequested() {
			cancelled()
			return
		}

		job.advance(StateRendering, i)
		o.log.Debug("rendering page",
			zap.String("job_id", job.ID),
			zap.Int("page", i),
			zap.Int("total", total),
		)

		img, err := o.rasterizer.RasterizePage(doc, i, job.Settings.PaperWidthMM)
		if err != nil {
			fail(fmt.Errorf("%w: page %d: %v", ErrRender, i, err))
			return
		}

		gray := raster.ToGrayscale(img)
		gray = raster.AdjustContrastBrightness(gray,
			float32(job.Settings.Contrast),
			float32(job.Settings.Brightness),
		)
		bits := ditherer.Dither(gray, job.Settings.Threshold)

		stream, err := o.encoder.EncodePage(bits, pageSettings)
		if err != nil {
			fail(fmt.Errorf("%w: page %d: %v", ErrRender, i, err))
			return
		}

		job.advance(StateTransmitting, i)
		if err := o.transport.Write(stream.Bytes()); err != nil {
			fail(fmt.Errorf("%w: printer %s: %v", ErrTransport, o.transport.Name(), err))
			return
		}

		emit(StatusEvent{
			JobID:      job.ID,
			Kind:       EventPageProgress,
			Page:       i + 1,
			TotalPages: total,
			Timestamp:  now(),
		})

		// Let the printer drain its internal buffer before the next page.
		if i+1 < total && o.settleDelay > 0 {
			time.Sleep(o.settleDelay)
		}
	}

	if job.finish(StateCompleted, "") {
		o.log.Info("job completed",
			zap.String("job_id", job.ID),
			zap.Int("pages", total),
		)
		emit(StatusEvent{JobID: job.ID, Kind: EventCompleted, TotalPages: total, Timestamp: now()})
	}
}
