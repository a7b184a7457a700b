// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package display

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"

	"github.com/skybluego123/Learningbuilding/camera"
	"github.com/skybluego123/Learningbuilding/telemetry"
	"github.com/skybluego123/Learningbuilding/thermal"
)

//go:embed static/index.html
var indexHTML []byte

// Options configures a Server.
type Options struct {
	Manager    *camera.Manager
	Thresholds *thermal.ThresholdConfig
	Assembler  *thermal.Assembler
	Hub        *Hub
	// Poller is optional; /api/sensors returns 404 without it.
	Poller *telemetry.Poller
	// Zoom of /still.png, defaults to DefaultZoom.
	Zoom int
}

// Server is the web UI and control API.
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New returns a Server. The gin mode is left to the caller.
func New(opts Options) (*Server, error) {
	if opts.Manager == nil || opts.Thresholds == nil || opts.Assembler == nil || opts.Hub == nil {
		return nil, errors.New("display: Manager, Thresholds, Assembler and Hub are required")
	}
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}
	s := &Server{opts: opts, engine: gin.New()}
	s.engine.Use(logRequests(), gin.Recovery())
	s.engine.GET("/", s.root)
	s.engine.GET("/still.png", s.still)
	s.engine.GET("/stream", gin.WrapH(websocket.Handler(s.stream)))
	api := s.engine.Group("/api")
	api.GET("/status", s.getStatus)
	api.GET("/cameras", s.getCameras)
	api.POST("/discovery/start", s.startDiscovery)
	api.POST("/discovery/stop", s.stopDiscovery)
	api.POST("/connect", s.connect)
	api.POST("/disconnect", s.disconnect)
	api.GET("/threshold", s.getThreshold)
	api.PUT("/threshold", s.putThreshold)
	api.GET("/sensors", s.getSensors)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done.
//
// On shutdown the Hub is closed so the streams terminate.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: readTimeout}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.opts.Hub.Close()
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (s *Server) root(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) still(c *gin.Context) {
	f := s.opts.Hub.Latest()
	if f == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame yet"})
		return
	}
	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "no-cache")
	if err := png.Encode(c.Writer, Render(f, s.opts.Zoom)); err != nil {
		log.Warn().Err(err).Msg("still")
	}
}

// stream sends each new frame as two WebSocket messages: "I" followed by the
// base64 PNG, then "M" followed by the JSON metadata.
func (s *Server) stream(ws *websocket.Conn) {
	defer ws.Close()
	remote := ws.Request().RemoteAddr
	log.Info().Str("remote", remote).Msg("websocket")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Nothing is expected from the client; this only detects it leaving.
		_, _ = io.Copy(io.Discard, ws)
		cancel()
	}()
	buf := &bytes.Buffer{}
	var seen uint64
	for {
		f, n, ok := s.opts.Hub.next(ctx, seen)
		if !ok {
			return
		}
		seen = n
		if err := writeFrame(ws, buf, f); err != nil {
			log.Info().Err(err).Str("remote", remote).Msg("websocket closed")
			return
		}
	}
}

// FrameInfo is the metadata of a frame sent to the clients.
type FrameInfo struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Scale     string    `json:"scale"`
	MinC      float64   `json:"min_c"`
	MaxC      float64   `json:"max_c"`
}

func writeFrame(w io.Writer, buf *bytes.Buffer, f *thermal.ProcessedFrame) error {
	buf.Reset()
	buf.WriteString("I")
	enc := base64.NewEncoder(base64.StdEncoding, buf)
	if err := png.Encode(enc, f.Image); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	buf.WriteString("M")
	info := FrameInfo{Seq: f.Seq, Timestamp: f.Timestamp, Scale: f.Scale.String(), MinC: f.Min, MaxC: f.Max}
	if err := json.NewEncoder(buf).Encode(&info); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	State     string  `json:"state"`
	Message   string  `json:"message"`
	DeviceID  string  `json:"device_id,omitempty"`
	Class     string  `json:"class,omitempty"`
	Session   string  `json:"session,omitempty"`
	Frames    uint64  `json:"frames"`
	Rate      float64 `json:"rate"`
	Good      uint64  `json:"good"`
	Failed    uint64  `json:"failed"`
	Dropped   uint64  `json:"dropped"`
	LastError string  `json:"last_error,omitempty"`
}

func (s *Server) getStatus(c *gin.Context) {
	st := s.opts.Manager.Status()
	stats := s.opts.Assembler.Stats()
	resp := StatusResponse{
		State:   st.State.String(),
		Message: st.Message,
		Session: st.Session,
		Frames:  s.opts.Hub.Count(),
		Rate:    s.opts.Hub.Rate(),
		Good:    stats.GoodFrames,
		Failed:  stats.Failed,
		Dropped: s.opts.Manager.Pipeline().Dropped(),
	}
	if st.Identity != nil {
		resp.DeviceID = st.Identity.DeviceID
		resp.Class = st.Identity.Class().String()
	}
	if stats.LastFail != nil {
		resp.LastError = stats.LastFail.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// CameraInfo is one entry of GET /api/cameras.
type CameraInfo struct {
	DeviceID  string `json:"device_id"`
	Interface string `json:"interface"`
	Class     string `json:"class"`
}

func (s *Server) getCameras(c *gin.Context) {
	ids := s.opts.Manager.Cameras()
	out := make([]CameraInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, CameraInfo{DeviceID: id.DeviceID, Interface: id.Interface.String(), Class: id.Class().String()})
	}
	c.JSON(http.StatusOK, gin.H{"cameras": out})
}

func (s *Server) startDiscovery(c *gin.Context) {
	s.reply(c, s.opts.Manager.StartDiscovery())
}

func (s *Server) stopDiscovery(c *gin.Context) {
	s.reply(c, s.opts.Manager.StopDiscovery())
}

func (s *Server) connect(c *gin.Context) {
	var req struct {
		Target string `json:"target" binding:"required,oneof=physical cpp flirone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := s.opts.Manager
	ctx := c.Request.Context()
	var err error
	switch req.Target {
	case "physical":
		err = m.ConnectPhysical(ctx)
	case "cpp":
		err = m.ConnectEmulatorCpp(ctx)
	case "flirone":
		err = m.ConnectEmulatorFlirOne(ctx)
	}
	s.reply(c, err)
}

func (s *Server) disconnect(c *gin.Context) {
	s.reply(c, s.opts.Manager.Disconnect())
}

// ThresholdResponse is returned by GET and PUT /api/threshold.
type ThresholdResponse struct {
	TemperatureC float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity"`
	DewPointC    float64 `json:"dew_point_c"`
	Overlay      string  `json:"overlay"`
}

func (s *Server) thresholdResponse() ThresholdResponse {
	snap := s.opts.Thresholds.Snapshot()
	rule := s.opts.Assembler.Rule()
	return ThresholdResponse{
		TemperatureC: snap.TemperatureK - thermal.ZeroCelsius,
		Humidity:     snap.Humidity,
		DewPointC:    snap.DisplayDewPointC(),
		Overlay:      rule.WithCutoff(snap.CutoffFor(rule)).String(),
	}
}

func (s *Server) getThreshold(c *gin.Context) {
	c.JSON(http.StatusOK, s.thresholdResponse())
}

// putThreshold is the commit action of the UI. Absent fields are unchanged.
func (s *Server) putThreshold(c *gin.Context) {
	var req struct {
		TemperatureC *float64 `json:"temperature_c"`
		Humidity     *float64 `json:"humidity"`
		Overlay      *string  `json:"overlay"`
		DotSize      int      `json:"dot_size"`
		Stride       int      `json:"stride"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var rule thermal.Rule
	if req.Overlay != nil {
		var err error
		if rule, err = thermal.ParseRule(*req.Overlay, req.DotSize, req.Stride); err != nil {
			s.reply(c, err)
			return
		}
	}
	t := s.opts.Thresholds
	// A rejected request changes nothing.
	cur := t.Snapshot()
	tempK, rh := cur.TemperatureK, cur.Humidity
	if req.TemperatureC != nil {
		tempK = *req.TemperatureC + thermal.ZeroCelsius
	}
	if req.Humidity != nil {
		rh = *req.Humidity
	}
	if _, err := thermal.DewPoint(tempK, rh); err != nil {
		s.reply(c, err)
		return
	}
	// The rule goes first; the next frame may pair it with the old cutoffs but
	// never the new cutoffs with the old rule.
	if rule != nil {
		s.opts.Assembler.SetRule(rule)
	}
	var err error
	switch {
	case req.TemperatureC != nil && req.Humidity != nil:
		_, err = t.Commit(tempK, rh)
	case req.TemperatureC != nil:
		_, err = t.CommitTemperature(tempK)
	case req.Humidity != nil:
		_, err = t.CommitHumidity(rh)
	}
	if err != nil {
		s.reply(c, err)
		return
	}
	log.Info().Stringer("thresholds", t.Snapshot()).Stringer("overlay", s.opts.Assembler.Rule()).Msg("threshold committed")
	c.JSON(http.StatusOK, s.thresholdResponse())
}

// SensorResponse is one entry of GET /api/sensors.
type SensorResponse struct {
	ID           int       `json:"id"`
	Sensor       string    `json:"sensor"`
	TemperatureC float64   `json:"temperature_c"`
	Humidity     float64   `json:"humidity"`
	Fetched      time.Time `json:"fetched"`
}

func (s *Server) getSensors(c *gin.Context) {
	p := s.opts.Poller
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "telemetry is disabled"})
		return
	}
	out := []SensorResponse{}
	for i := range p.Sensors {
		if r, ok := p.Reading(i); ok {
			out = append(out, SensorResponse{
				ID:           i,
				Sensor:       r.Sensor,
				TemperatureC: r.TemperatureK() - thermal.ZeroCelsius,
				Humidity:     r.HumidityPercent(),
				Fetched:      r.Fetched,
			})
		}
	}
	resp := gin.H{"sensors": out}
	if err := p.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// reply sends the status on success or the error mapped to an HTTP code.
func (s *Server) reply(c *gin.Context, err error) {
	if err == nil {
		c.JSON(http.StatusOK, s.statusBody())
		return
	}
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, camera.ErrNoCameraAvailable):
		code = http.StatusNotFound
	case errors.Is(err, camera.ErrAlreadyConnected), errors.Is(err, camera.ErrInvalidTransition):
		code = http.StatusConflict
	case errors.Is(err, camera.ErrPermissionDenied):
		code = http.StatusForbidden
	case errors.Is(err, camera.ErrConnectFailure):
		code = http.StatusBadGateway
	case errors.Is(err, thermal.ErrInvalidArgument):
		code = http.StatusBadRequest
	}
	body := s.statusBody()
	body["error"] = err.Error()
	c.JSON(code, body)
}

func (s *Server) statusBody() gin.H {
	st := s.opts.Manager.Status()
	return gin.H{"state": st.State.String(), "message": st.Message}
}

// logRequests logs each HTTP request.
func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("remote", c.Request.RemoteAddr).
			Int("status", c.Writer.Status()).
			Int("size", c.Writer.Size()).
			Str("method", c.Request.Method).
			Str("uri", c.Request.RequestURI).
			Dur("latency", time.Since(start)).
			Msg("http")
	}
}
