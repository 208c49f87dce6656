package webui

const defaultIndexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>promptsmith</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: linear-gradient(145deg,#f7fafc,#e9eef7); color: #1f2937; }
    .wrap { max-width: 1100px; margin: 0 auto; padding: 20px; display: grid; grid-template-columns: 320px 1fr; gap: 16px; }
    .panel { background: #fff; border-radius: 12px; box-shadow: 0 8px 30px rgba(15,23,42,.08); padding: 16px; }
    pre { min-height: 320px; max-height: 70vh; overflow: auto; white-space: pre-wrap; border: 1px solid #d1d5db; border-radius: 8px; padding: 12px; background: #f9fafb; }
    li { display: flex; gap: 6px; align-items: center; margin: 4px 0; }
    li span { flex: 1; }
    button { padding: 4px 8px; border: 0; border-radius: 6px; background: #0f766e; color: #fff; cursor: pointer; }
    button:hover { background: #0d9488; }
    select { padding: 4px; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="panel">
      <h3>Sections</h3>
      <ul id="sections"></ul>
      <button id="execute">Execute</button>
    </div>
    <div class="panel">
      <h3>Prompt <select id="mode"><option value="roles">roles</option><option value="combined">combined</option></select></h3>
      <pre id="prompt"></pre>
      <h3>Result</h3>
      <pre id="result"></pre>
    </div>
  </div>
  <script>
    const $ = (id) => document.getElementById(id);
    let ws;
    const post = (url, body) => fetch(url, { method:'POST', headers:{'Content-Type':'application/json'}, body: JSON.stringify(body) }).then(r => r.json());
    function show(p) {
      $('prompt').textContent = p.mode === 'roles' ? '[system]\n' + (p.system || '') + '\n[user]\n' + (p.user || '') : (p.text || '');
    }
    async function loadSections() {
      const data = await fetch('/api/structure').then(r => r.json());
      const ul = $('sections');
      ul.innerHTML = '';
      for (const s of data.sections) {
        const li = document.createElement('li');
        li.innerHTML = '<input type="checkbox"' + (s.enabled ? ' checked' : '') + '/><span>' + s.name + ' (' + s.role + ')</span><button>&uarr;</button><button>&darr;</button>';
        const [box, , up, down] = li.children;
        box.onchange = () => post('/api/structure/enable', { name: s.name, enabled: box.checked }).then(loadSections);
        up.onclick = () => post('/api/structure/move', { name: s.name, direction: 'up' }).then(loadSections);
        down.onclick = () => post('/api/structure/move', { name: s.name, direction: 'down' }).then(loadSections);
        ul.appendChild(li);
      }
    }
    function connect() {
      if (ws) ws.close();
      ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws?mode=' + $('mode').value);
      ws.onmessage = (e) => show(JSON.parse(e.data).prompt);
    }
    $('mode').onchange = connect;
    $('execute').onclick = async () => {
      $('result').textContent = 'Generating content...';
      const res = await post('/api/execute', { mode: $('mode').value });
      $('result').textContent = (res.content || res.error || '') + '\n\n' + JSON.stringify(res.metadata || {}, null, 2);
    };
    loadSections();
    connect();
  </script>
</body>
</html>`
