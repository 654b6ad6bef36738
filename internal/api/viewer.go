package api

import (
	"html/template"
	"net/http"
	"strings"
)

// handleViewer handles GET /stream/{deviceId}: the HTML live viewer page.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, http.MethodGet)
		return
	}

	deviceID := strings.TrimPrefix(r.URL.Path, "/stream/")
	if deviceID == "" || strings.Contains(deviceID, "/") {
		WriteError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := viewerTemplate.Execute(w, struct {
		DeviceID string
		WSURL    string
	}{
		DeviceID: deviceID,
		WSURL:    scheme + "://" + r.Host + "/ws/stream/" + deviceID,
	})
	if err != nil {
		s.log.Errorf("viewer template: %v", err)
	}
}

var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Live Stream · {{.DeviceID}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Arial, sans-serif;
      background: linear-gradient(135deg, #0a0a0a 0%, #1a1a1a 100%);
      color: #ffffff;
      min-height: 100vh;
      display: flex;
      flex-direction: column;
      align-items: center;
      justify-content: center;
      padding: 40px 20px;
    }
    .container {
      width: 100%;
      max-width: 1200px;
      display: flex;
      flex-direction: column;
      align-items: center;
      gap: 32px;
    }
    .header { text-align: center; }
    .header h1 { font-size: 32px; font-weight: 600; }
    .status {
      display: inline-flex;
      align-items: center;
      gap: 6px;
      padding: 6px 12px;
      border-radius: 16px;
      font-size: 12px;
      border: 1px solid rgba(255, 255, 255, 0.1);
      background: rgba(255, 255, 255, 0.08);
    }
    .status.connected { color: #34c759; border-color: rgba(52, 199, 89, 0.3); }
    .status.disconnected { color: #ff3b30; border-color: rgba(255, 59, 48, 0.3); }
    .video-wrapper {
      width: 100%;
      max-width: 900px;
      aspect-ratio: 16 / 9;
      border-radius: 24px;
      overflow: hidden;
      background: #000000;
    }
    #videoFrame { width: 100%; height: 100%; object-fit: contain; display: block; }
    .info {
      display: flex;
      gap: 24px;
      padding: 16px 24px;
      border-radius: 16px;
      border: 1px solid rgba(255, 255, 255, 0.1);
      background: rgba(255, 255, 255, 0.05);
      font-size: 14px;
    }
    .info .label {
      font-size: 11px;
      text-transform: uppercase;
      letter-spacing: 0.5px;
      color: rgba(255, 255, 255, 0.5);
    }
    .info .value { font-size: 17px; font-weight: 600; font-variant-numeric: tabular-nums; }
    .device-id { font-family: "SF Mono", Monaco, monospace; font-size: 13px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Live Stream</h1>
      <div id="status" class="status disconnected"><span id="statusText">connecting…</span></div>
    </div>
    <div class="video-wrapper">
      <img id="videoFrame" alt="live stream" />
    </div>
    <div class="info">
      <div><div class="label">Device</div><div class="value device-id">{{.DeviceID}}</div></div>
      <div><div class="label">Frame rate</div><div class="value"><span id="fps">0</span> FPS</div></div>
    </div>
  </div>
  <script>
    const wsUrl = {{.WSURL}};
    const videoFrame = document.getElementById('videoFrame');
    const statusEl = document.getElementById('status');
    const statusText = document.getElementById('statusText');
    const fpsSpan = document.getElementById('fps');

    let frameCount = 0;
    let lastFpsUpdate = Date.now();
    let previousBlobUrl = null;

    function updateStatus(text, connected) {
      statusText.textContent = text;
      statusEl.className = 'status ' + (connected ? 'connected' : 'disconnected');
    }

    function connect() {
      const ws = new WebSocket(wsUrl);
      ws.binaryType = 'blob';

      ws.onopen = function() {
        updateStatus('connected', true);
        frameCount = 0;
        lastFpsUpdate = Date.now();
      };

      ws.onmessage = function(event) {
        if (!(event.data instanceof Blob)) {
          return;
        }
        const newBlobUrl = URL.createObjectURL(event.data);
        videoFrame.src = newBlobUrl;
        if (previousBlobUrl) {
          const stale = previousBlobUrl;
          setTimeout(function() { URL.revokeObjectURL(stale); }, 100);
        }
        previousBlobUrl = newBlobUrl;

        frameCount++;
        const now = Date.now();
        if (now - lastFpsUpdate >= 1000) {
          fpsSpan.textContent = frameCount;
          frameCount = 0;
          lastFpsUpdate = now;
        }
      };

      ws.onclose = function() {
        updateStatus('disconnected, reconnecting…', false);
        if (previousBlobUrl) {
          URL.revokeObjectURL(previousBlobUrl);
          previousBlobUrl = null;
        }
        setTimeout(connect, 3000);
      };
    }

    connect();
  </script>
</body>
</html>
`))
