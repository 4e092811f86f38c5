package api

import "net/http"

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(pageHTML))
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>QR Code Generator</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #f3f4f6;
    color: #1f2937;
    display: flex;
    justify-content: center;
    align-items: center;
    min-height: 100vh;
  }
  .card {
    background: #fff;
    border: 1px solid #e5e7eb;
    border-radius: 16px;
    padding: 40px;
    text-align: center;
    max-width: 460px;
    width: 100%;
  }
  h1 { font-size: 20px; font-weight: 600; margin-bottom: 24px; }
  input, textarea {
    width: 100%;
    padding: 10px;
    margin-bottom: 12px;
    border: 1px solid #d1d5db;
    border-radius: 8px;
    font: inherit;
  }
  button {
    padding: 8px 14px;
    margin: 4px;
    border: 0;
    border-radius: 8px;
    background: #1f2937;
    color: #fff;
    cursor: pointer;
  }
  button:disabled { opacity: 0.5; cursor: default; }
  button.secondary { background: #e5e7eb; color: #1f2937; }
  #preview { margin: 20px auto 8px; display: none; }
  #preview h2 { font-size: 18px; margin-bottom: 8px; }
  #preview img { width: 200px; height: 200px; }
  #preview .mark { font-size: 11px; color: #6b7280; }
  #banner, #copied { font-size: 14px; color: #16a34a; min-height: 20px; margin-top: 8px; }
  #error { font-size: 13px; color: #dc2626; min-height: 18px; }
  #history { text-align: left; margin-top: 16px; display: none; }
  #history li { list-style: none; padding: 8px; border-bottom: 1px solid #f3f4f6; cursor: pointer; }
  #history li:hover { background: #f9fafb; }
  #history .when { color: #6b7280; font-size: 12px; }
</style>
</head>
<body>
<div class="card">
  <h1>QR Code Generator</h1>
  <input id="title" placeholder="Title (optional)">
  <textarea id="text" rows="3" placeholder="Enter text or URL"></textarea>
  <div>
    <button id="generate">Generate</button>
    <button id="copy" class="secondary">Copy text</button>
    <button id="toggle" class="secondary">History</button>
  </div>
  <div id="error"></div>
  <div id="preview">
    <h2 id="preview-title"></h2>
    <img id="preview-img" alt="QR Code">
    <div class="mark">QR by gitanshu.world</div>
    <div>
      <button id="png">Download PNG</button>
      <button id="jpg">Download JPG</button>
    </div>
  </div>
  <div id="banner"></div>
  <div id="copied"></div>
  <ul id="history"></ul>
</div>
<script>
(function() {
  var textEl = document.getElementById('text');
  var titleEl = document.getElementById('title');
  var errorEl = document.getElementById('error');
  var generateBtn = document.getElementById('generate');
  var previewEl = document.getElementById('preview');
  var previewImg = document.getElementById('preview-img');
  var previewTitle = document.getElementById('preview-title');
  var bannerEl = document.getElementById('banner');
  var copiedEl = document.getElementById('copied');
  var historyEl = document.getElementById('history');
  var revision = -1;

  function clearChildren(el) {
    while (el.firstChild) el.removeChild(el.firstChild);
  }

  function call(method, path, body) {
    var opts = { method: method, headers: {} };
    if (body !== undefined) {
      opts.headers['Content-Type'] = 'application/json';
      opts.body = JSON.stringify(body);
    }
    return fetch(path, opts).then(function(r) {
      return r.json().then(function(data) {
        if (!r.ok) throw new Error(data.error || r.statusText);
        return data;
      });
    });
  }

  function form() {
    return { text: textEl.value, title: titleEl.value };
  }

  function showError(err) {
    errorEl.textContent = err ? err.message : '';
  }

  function renderHistory(entries) {
    clearChildren(historyEl);
    entries.forEach(function(e) {
      var li = document.createElement('li');
      var label = document.createElement('div');
      label.textContent = e.title ? e.title + ' - ' + e.text : e.text;
      var when = document.createElement('div');
      when.className = 'when';
      when.textContent = new Date(e.created_at).toLocaleTimeString();
      li.appendChild(label);
      li.appendChild(when);
      li.addEventListener('click', function() {
        call('POST', '/history/' + encodeURIComponent(e.id) + '/select').then(function(f) {
          textEl.value = f.text;
          titleEl.value = f.title;
          refresh();
        }).catch(showError);
      });
      historyEl.appendChild(li);
    });
  }

  function render(state) {
    generateBtn.disabled = state.flags.generating;
    generateBtn.textContent = state.flags.generating ? 'Generating...' : 'Generate';
    bannerEl.textContent = state.flags.show_thank_you ? 'QR code generated successfully!' : '';
    copiedEl.textContent = state.flags.copied ? 'Copied!' : '';
    historyEl.style.display = state.flags.show_history ? 'block' : 'none';
    renderHistory(state.history || []);

    if (state.code && state.code.revision !== revision) {
      revision = state.code.revision;
      previewImg.setAttribute('src', state.code.data_url);
      previewTitle.textContent = state.code.title || '';
      previewEl.style.display = 'block';
    }
  }

  function refresh() {
    return call('GET', '/state').then(render).catch(showError);
  }

  generateBtn.addEventListener('click', function() {
    showError(null);
    generateBtn.disabled = true;
    call('POST', '/generate', form()).then(render).catch(function(err) {
      showError(err);
      refresh();
    });
  });

  document.getElementById('copy').addEventListener('click', function() {
    showError(null);
    var text = textEl.value;
    if (!text) return;
    // Write the browser clipboard inside the click so the permission holds.
    var local = navigator.clipboard ? navigator.clipboard.writeText(text) : Promise.reject(new Error('clipboard unavailable'));
    var localOK = local.then(function() { return true; }, function() { return false; });
    call('PUT', '/form', form()).then(function() {
      return call('POST', '/copy');
    }).then(function(r) {
      return localOK.then(function(ok) {
        if (navigator.clipboard && (!ok || r.text !== text)) return navigator.clipboard.writeText(r.text);
      });
    }, function(err) {
      return localOK.then(function(ok) { if (!ok) throw err; });
    }).then(refresh).catch(showError);
  });

  document.getElementById('toggle').addEventListener('click', function() {
    call('POST', '/history/toggle').then(refresh).catch(showError);
  });

  document.getElementById('png').addEventListener('click', function() {
    window.location.href = '/export/png';
  });
  document.getElementById('jpg').addEventListener('click', function() {
    window.location.href = '/export/jpg';
  });

  refresh();
  setInterval(refresh, 1000);
})();
</script>
</body>
</html>`
